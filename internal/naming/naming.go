// Package naming derives blob names for manifests, version blobs, shards and chats.
//
// Names are the only index the stores keep, so every function here is pure
// and round-trips: ParseVersionBlobName(VersionBlobName(k)) yields k for any
// slug-clean key.
//
// Slugs keep Unicode letters and digits. Accents are stripped and a few
// Latin ligatures folded (ß -> ss, æ -> ae); scripts without an ASCII
// decomposition (Cyrillic, CJK) are kept as they are.
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// File suffixes.
const (
	ManifestExt    = ".json"
	VersionBlobExt = ".txt"
	ShardExt       = ".faiss.zip"

	// GlobalShardName is the blob name of the all-documents shard.
	GlobalShardName = "_global" + ShardExt

	// FallbackSlug is used when a title yields no words.
	FallbackSlug = "documento"

	// ChatIndexName is the blob listing every chat.
	ChatIndexName = "index.json"

	chatHistoryExt = ".history.jsonl"
	chatSummaryExt = ".summary.txt"
	fallbackChat   = "chat"

	versionSep    = "__"
	maxSlugRunes  = 80
	maxTitleWords = 8
)

var (
	nonWord   = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separator = regexp.MustCompile(`[\s_-]+`)
	word      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	blobName  = regexp.MustCompile(`^(.+?)__(.+?)__(\d{3,})\.txt$`)
)

var ligatures = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
)

// Transliterate folds accented characters to their base letters.
func Transliterate(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return ligatures.Replace(out)
}

// Slugify lower-cases and transliterates s, keeps word characters, and joins
// runs of whitespace, underscores and hyphens with a single hyphen.
// The result is at most 80 runes and never starts or ends with a hyphen.
func Slugify(s string) string {
	s = strings.ToLower(Transliterate(s))
	s = nonWord.ReplaceAllString(s, "")
	s = separator.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if r := []rune(s); len(r) > maxSlugRunes {
		s = strings.TrimRight(string(r[:maxSlugRunes]), "-")
	}
	return s
}

// SlugFromText builds a short slug from the first eight words of a title.
// Returns FallbackSlug when the text has no words.
func SlugFromText(text string) string {
	words := word.FindAllString(Transliterate(text), maxTitleWords)
	if len(words) == 0 {
		return FallbackSlug
	}
	slug := Slugify(strings.Join(words, "-"))
	if slug == "" {
		return FallbackSlug
	}
	return slug
}

// ManifestName returns the blob name of a document manifest.
func ManifestName(docID string) string {
	return docID + ManifestExt
}

// DocIDFromManifest strips the manifest suffix.
func DocIDFromManifest(name string) (string, bool) {
	if !strings.HasSuffix(name, ManifestExt) || len(name) == len(ManifestExt) {
		return "", false
	}
	return strings.TrimSuffix(name, ManifestExt), true
}

// VersionBlobName returns "{slug(doc)}__{slug(source)}__{nnn}.txt".
func VersionBlobName(key domain.VersionKey) string {
	source := Slugify(key.Source)
	if source == "" {
		source = domain.SourceUnknown
	}
	return fmt.Sprintf("%s%s%s%s%03d%s", Slugify(key.DocID), versionSep, source, versionSep, key.Index, VersionBlobExt)
}

// VersionBlobPrefix returns the name prefix shared by all version blobs of a document.
func VersionBlobPrefix(docID string) string {
	return Slugify(docID) + versionSep
}

// ParseVersionBlobName splits a version blob name back into its key.
func ParseVersionBlobName(name string) (domain.VersionKey, bool) {
	m := blobName.FindStringSubmatch(name)
	if m == nil {
		return domain.VersionKey{}, false
	}
	idx, err := strconv.Atoi(m[3])
	if err != nil {
		return domain.VersionKey{}, false
	}
	return domain.VersionKey{DocID: m[1], Source: m[2], Index: idx}, true
}

// ShardName returns the blob name of a document's shard.
func ShardName(docID string) string {
	return docID + ShardExt
}

// IsDocShard reports whether name is a per-document shard (not the global one).
func IsDocShard(name string) bool {
	return strings.HasSuffix(name, ShardExt) && name != GlobalShardName && len(name) > len(ShardExt)
}

// DocIDFromShard strips the shard suffix.
func DocIDFromShard(name string) (string, bool) {
	if !IsDocShard(name) {
		return "", false
	}
	return strings.TrimSuffix(name, ShardExt), true
}

// MemoryShardName returns the blob name of a chat's memory shard.
func MemoryShardName(chatID string) string {
	return chatID + ShardExt
}

// ChatID returns "{YYYYmmdd-HHMMSS}_{slug(title)}", using "chat" when the title has no words.
func ChatID(title string, at time.Time) string {
	slug := Slugify(title)
	if slug == "" {
		slug = fallbackChat
	}
	return at.Format("20060102-150405") + "_" + slug
}

// ChatHistoryName returns the blob name of a chat's JSON-lines history.
func ChatHistoryName(chatID string) string {
	return chatID + chatHistoryExt
}

// ChatSummaryName returns the blob name of a chat's rolling summary.
func ChatSummaryName(chatID string) string {
	return chatID + chatSummaryExt
}

// TranscriptName returns "{YYYYmmddTHHMMSSZ}-{slug(title)}[-{slug(keyword)}].md".
func TranscriptName(title string, at time.Time, keyword string) string {
	parts := []string{at.UTC().Format("20060102T150405Z")}
	if s := Slugify(title); s != "" {
		parts = append(parts, s)
	}
	if keyword != "" {
		if s := Slugify(keyword); s != "" {
			if r := []rune(s); len(r) > 30 {
				s = strings.TrimRight(string(r[:30]), "-")
			}
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-") + ".md"
}
