// Package sanitizer converts raw asset names into a web-safe form.
// Sanitization is a pure, deterministic transformation of the name:
// running it twice with the same options yields the same result.
package sanitizer

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// SpaceReplacement selects what whitespace runs become.
type SpaceReplacement string

const (
	SpaceRemove     SpaceReplacement = "Remove"
	SpaceDash       SpaceReplacement = "Dash"
	SpaceUnderscore SpaceReplacement = "Underscore"
)

// Options configures the sanitization pipeline. Values are passed by value
// to every Sanitize call and never mutated mid-run.
type Options struct {
	RemoveMetadata      bool             `json:"remove_metadata"`
	SpaceReplacement    SpaceReplacement `json:"space_replacement"`
	ExpandAmpersand     bool             `json:"expand_ampersand"`
	PreserveCase        bool             `json:"preserve_case"`
	LowercaseExtensions bool             `json:"lowercase_extensions"`
	Force               bool             `json:"force"`
}

// DefaultOptions returns the options used when no flags override them.
func DefaultOptions() Options {
	return Options{
		SpaceReplacement:    SpaceUnderscore,
		LowercaseExtensions: true,
	}
}

var (
	// parenGroupRegex matches a non-nested parenthesized group.
	parenGroupRegex = regexp.MustCompile(`\([^()]*\)`)
	// bracketGroupRegex matches a non-nested bracketed group.
	bracketGroupRegex = regexp.MustCompile(`\[[^\[\]]*\]`)
	// dimensionRegex matches a WxH pixel-dimension suffix like _1920x1080.
	// Anchored: dimensions embedded mid-name are part of the name.
	dimensionRegex = regexp.MustCompile(`[_-]\d+x\d+$`)
	// whitespaceRegex matches runs of whitespace.
	whitespaceRegex = regexp.MustCompile(`\s+`)
	// repeatedAndRegex collapses stacked ampersand expansions.
	repeatedAndRegex = regexp.MustCompile(`(_and_)+`)
	// problematicRegex matches characters that are deleted outright.
	problematicRegex = regexp.MustCompile("[*\":;|,=+$?%#<>!@^~`']")
	// bracketCharRegex matches surviving bracket characters, converted to dashes.
	bracketCharRegex = regexp.MustCompile(`[()\[\]]`)
	// multiUnderscoreRegex matches repeated underscores.
	multiUnderscoreRegex = regexp.MustCompile(`_+`)
	// multiDashRegex matches repeated dashes.
	multiDashRegex = regexp.MustCompile(`-+`)
	// multiDotRegex matches repeated dots.
	multiDotRegex = regexp.MustCompile(`\.+`)
	// edgeSeparatorRegex matches leading or trailing separator runs.
	edgeSeparatorRegex = regexp.MustCompile(`^[-_.]+|[-_.]+$`)
	// edgeDashUnderscoreRegex matches leading or trailing dash/underscore runs.
	edgeDashUnderscoreRegex = regexp.MustCompile(`^[-_]+|[-_]+$`)
)

// Sanitize transforms a base name (without extension) and its extension into
// the final sanitized filename. The extension is passed with its leading dot
// and may be empty (directories). The pipeline steps run in a fixed order;
// each step operates on the output of the previous one.
func Sanitize(name, ext string, opts Options) string {
	n := name

	if opts.RemoveMetadata {
		n = parenGroupRegex.ReplaceAllString(n, "")
		n = bracketGroupRegex.ReplaceAllString(n, "")
		// A stripped trailing group can leave whitespace hiding a
		// dimension suffix.
		n = strings.TrimSpace(n)
		n = dimensionRegex.ReplaceAllString(n, "")
		n = multiUnderscoreRegex.ReplaceAllString(n, "_")
		n = multiDashRegex.ReplaceAllString(n, "-")
		n = edgeDashUnderscoreRegex.ReplaceAllString(n, "")
	}

	switch opts.SpaceReplacement {
	case SpaceDash:
		n = whitespaceRegex.ReplaceAllString(n, "-")
	case SpaceUnderscore:
		n = whitespaceRegex.ReplaceAllString(n, "_")
	default:
		n = whitespaceRegex.ReplaceAllString(n, "")
	}

	if opts.ExpandAmpersand {
		n = strings.ReplaceAll(n, "&", "_and_")
		n = repeatedAndRegex.ReplaceAllString(n, "_and_")
	} else {
		n = strings.ReplaceAll(n, "&", "_")
	}

	n = problematicRegex.ReplaceAllString(n, "")
	n = bracketCharRegex.ReplaceAllString(n, "-")

	n = multiUnderscoreRegex.ReplaceAllString(n, "_")
	n = multiDashRegex.ReplaceAllString(n, "-")
	n = multiDotRegex.ReplaceAllString(n, ".")
	n = edgeSeparatorRegex.ReplaceAllString(n, "")

	if !opts.PreserveCase {
		n = strings.ToLower(n)
	}

	e := ext
	if opts.LowercaseExtensions {
		e = strings.ToLower(e)
	}

	if strings.TrimSpace(n) == "" {
		// A fully stripped name gets a generated placeholder. This is the
		// single non-deterministic path in the pipeline.
		n = fmt.Sprintf("unnamed_%d", rand.Intn(10000))
	}

	return n + e
}

// SplitName separates a filename into base name and extension. Directories
// have no extension, so the full name is returned as the base.
func SplitName(filename string, isDir bool) (base, ext string) {
	if isDir {
		return filename, ""
	}

	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx], filename[idx:]
	}

	return filename, ""
}
