package images

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/partsynth/constants"
)

// DefaultPickLimit is the number of representative images kept by PickRepresentative.
const DefaultPickLimit = 3

var blockWords = []string{
	"logo", "icon", "favicon", "sprite", "banner", "placeholder", "thumb", "thumbnail",
	"badge", "qr", "barcode", "certificate", "datasheet-cover", "pdf-cover",
}

var preferWords = []string{
	"product", "part", "module", "assembly", "front", "side", "top",
	"connector", "board", "pcb", "housing", "enclosure", "mount", "bracket",
}

var (
	// Go regexp has no backreferences, so the square icon sizes are listed.
	reSmallSquare = regexp.MustCompile(`\b(?:16x16|24x24|32x32|48x48|64x64|80x80|96x96|120x120|128x128|150x150|180x180|200x200)\b`)
	reMediaDir    = regexp.MustCompile(`/(?:product|products|images|asset|media)/`)
)

type candidate struct {
	url   string
	key   string
	score int
}

// PickRepresentative filters raw image URLs down to a short ranked list.
// When allowedHosts is non-empty only those hosts survive. limit <= 0 selects DefaultPickLimit.
func PickRepresentative(candidates []string, allowedHosts []string, limit int) []string {
	if len(candidates) == 0 {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultPickLimit
	}
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = struct{}{}
		}
	}

	items := make([]candidate, 0, len(candidates))
	for _, raw := range candidates {
		c, ok := scoreCandidate(raw, hosts)
		if ok {
			items = append(items, c)
		}
	}

	seen := make(map[string]struct{}, len(items))
	uniq := items[:0]
	for _, it := range items {
		if _, dup := seen[it.key]; dup {
			continue
		}
		seen[it.key] = struct{}{}
		uniq = append(uniq, it)
	}

	slices.SortStableFunc(uniq, func(a, b candidate) int { return b.score - a.score })

	out := make([]string, 0, min(limit, len(uniq)))
	for _, it := range uniq {
		if len(out) == limit {
			break
		}
		out = append(out, it.url)
	}
	return out
}

func scoreCandidate(raw string, hosts map[string]struct{}) (candidate, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return candidate{}, false
	}
	if len(hosts) > 0 {
		if _, ok := hosts[strings.ToLower(u.Hostname())]; !ok {
			return candidate{}, false
		}
	}

	p := strings.ToLower(u.Path)
	if !constants.IsAllowedImageExt(path.Ext(p)) {
		return candidate{}, false
	}
	for _, w := range blockWords {
		if strings.Contains(p, w) {
			return candidate{}, false
		}
	}
	if reSmallSquare.MatchString(p) {
		return candidate{}, false
	}

	score := 0
	for _, w := range preferWords {
		if strings.Contains(p, w) {
			score += 2
		}
	}
	if reMediaDir.MatchString(p) {
		score++
	}

	key := *u
	key.RawQuery = ""
	key.ForceQuery = false
	return candidate{url: strings.TrimSpace(raw), key: key.String(), score: score}, true
}

// HostsOf returns the distinct hostnames of the given URLs, skipping unparsable ones.
func HostsOf(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Hostname() == "" {
			continue
		}
		h := strings.ToLower(u.Hostname())
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
