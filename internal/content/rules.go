package content

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Rules holds every selector the extraction modules depend on. Root
// selectors may be CSS or "xpath:"-prefixed XPath; the rest are CSS,
// evaluated relative to the matched root or item.
type Rules struct {
	Listing       ListingRules      `yaml:"listing" toml:"listing"`
	Detail        DetailRules       `yaml:"detail" toml:"detail"`
	Comments      CommentRules      `yaml:"comments" toml:"comments"`
	Subscriptions SubscriptionRules `yaml:"subscriptions" toml:"subscriptions"`
	Interstitial  InterstitialRules `yaml:"interstitial" toml:"interstitial"`
}

type ListingRules struct {
	Root      string `yaml:"root" toml:"root"`
	Item      string `yaml:"item" toml:"item"`
	Title     string `yaml:"title" toml:"title"`
	Thumbnail string `yaml:"thumbnail" toml:"thumbnail"`
	Midcol    string `yaml:"midcol" toml:"midcol"`
	UpArrow   string `yaml:"up_arrow" toml:"up_arrow"`
	DownArrow string `yaml:"down_arrow" toml:"down_arrow"`
	Next      string `yaml:"next" toml:"next"`
}

type DetailRules struct {
	Root        string `yaml:"root" toml:"root"`
	Body        string `yaml:"body" toml:"body"`
	CommentArea string `yaml:"comment_area" toml:"comment_area"`
}

type CommentRules struct {
	Root     string `yaml:"root" toml:"root"`
	Comment  string `yaml:"comment" toml:"comment"`
	More     string `yaml:"more" toml:"more"`
	Entry    string `yaml:"entry" toml:"entry"`
	Author   string `yaml:"author" toml:"author"`
	Body     string `yaml:"body" toml:"body"`
	Score    string `yaml:"score" toml:"score"`
	Toggle   string `yaml:"toggle" toml:"toggle"`
	Children string `yaml:"children" toml:"children"`
	Listing  string `yaml:"listing" toml:"listing"`
}

type SubscriptionRules struct {
	Root string `yaml:"root" toml:"root"`
	Item string `yaml:"item" toml:"item"`
}

type InterstitialRules struct {
	Root   string `yaml:"root" toml:"root"`
	Accept string `yaml:"accept" toml:"accept"`
}

// DefaultRules matches the classic server-rendered markup of the target site.
func DefaultRules() Rules {
	return Rules{
		Listing: ListingRules{
			Root:      "body:not(.comments-page) #siteTable",
			Item:      ".thing.link:not(.promoted)",
			Title:     "a.title",
			Thumbnail: "a.thumbnail img",
			Midcol:    ".midcol",
			UpArrow:   ".arrow.up, .arrow.upmod",
			DownArrow: ".arrow.down, .arrow.downmod",
			Next:      ".nav-buttons .next-button a",
		},
		Detail: DetailRules{
			Root:        ".comments-page #siteTable > .thing.link",
			Body:        ".expando .usertext-body .md",
			CommentArea: ".commentarea",
		},
		Comments: CommentRules{
			Root:     ".commentarea > .sitetable.nestedlisting",
			Comment:  ".thing.comment",
			More:     ".thing.morechildren",
			Entry:    ".entry",
			Author:   ".tagline .author",
			Body:     ".usertext-body .md",
			Score:    ".tagline .score.unvoted",
			Toggle:   ".tagline .expand",
			Children: ".child",
			Listing:  ".sitetable",
		},
		Subscriptions: SubscriptionRules{
			Root: "#sr-header-area",
			Item: "ul.sr-bar li a",
		},
		Interstitial: InterstitialRules{
			Root:   ".interstitial",
			Accept: `button[name="over18"][value="yes"]`,
		},
	}
}

// LoadRules reads a YAML or TOML rules file on top of the defaults. Keys
// absent from the file keep their default selector.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rules)
	case ".toml":
		err = toml.Unmarshal(data, &rules)
	default:
		return DefaultRules(), fmt.Errorf("unsupported rules format %q", filepath.Ext(path))
	}
	if err != nil {
		return DefaultRules(), fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}
