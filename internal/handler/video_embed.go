package handler

import (
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	videoLinePattern = regexp.MustCompile(`^\s*<?(https?://[^\s>]+)>?\s*$`)
	videoSrcPattern  = regexp.MustCompile(`^https://(?:www\.youtube-nocookie\.com/embed/|player\.vimeo\.com/video/)`)
	videoTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`)
	listItemPattern  = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+`)
)

// buildContentSanitizer 在 UGC 策略基础上只放行 YouTube / Vimeo 播放器。
func buildContentSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe", "figure", "figcaption")
	policy.AllowAttrs("class", "data-video-platform").OnElements("div")
	policy.AllowAttrs("src").Matching(videoSrcPattern).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

type videoEmbed struct {
	Platform string
	EmbedURL string
}

// expandVideoLinks 把单独成行的视频链接替换成播放器。代码块、引用和列表中的链接保持原样。
func expandVideoLinks(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			switch {
			case fence == "":
				fence = trimmed[:3]
			case strings.HasPrefix(trimmed, fence):
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		if strings.HasPrefix(trimmed, ">") || listItemPattern.MatchString(trimmed) {
			continue
		}

		match := videoLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		if embed, ok := parseVideoURL(match[1]); ok {
			lines[i] = embed.html()
		}
	}
	return strings.Join(lines, "\n")
}

func parseVideoURL(raw string) (videoEmbed, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return videoEmbed{}, false
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case host == "youtu.be" || isHostOrSubdomain(host, "youtube.com"):
		return youtubeEmbed(u, host)
	case isHostOrSubdomain(host, "vimeo.com"):
		return vimeoEmbed(u)
	}
	return videoEmbed{}, false
}

func youtubeEmbed(u *url.URL, host string) (videoEmbed, bool) {
	path := strings.Trim(u.Path, "/")
	var id string
	switch {
	case host == "youtu.be":
		id = path
	case path == "watch":
		id = u.Query().Get("v")
	default:
		for _, prefix := range []string{"shorts/", "embed/", "live/"} {
			if strings.HasPrefix(path, prefix) {
				id = strings.TrimPrefix(path, prefix)
				break
			}
		}
	}
	id, _, _ = strings.Cut(id, "/")
	if id == "" {
		return videoEmbed{}, false
	}

	values := url.Values{}
	values.Set("rel", "0")
	if start := parseStartTime(u.Query().Get("t")); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}
	return videoEmbed{
		Platform: "youtube",
		EmbedURL: "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id) + "?" + values.Encode(),
	}, true
}

func vimeoEmbed(u *url.URL) (videoEmbed, bool) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" || !onlyDigits(id) {
		return videoEmbed{}, false
	}
	return videoEmbed{
		Platform: "vimeo",
		EmbedURL: "https://player.vimeo.com/video/" + id,
	}, true
}

// parseStartTime 支持 "90" 与 "1m30s" 两种写法。
func parseStartTime(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if onlyDigits(value) {
		seconds, _ := strconv.Atoi(value)
		return seconds
	}

	total := 0
	for _, match := range videoTimePattern.FindAllStringSubmatch(value, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}

func (v videoEmbed) html() string {
	title := "Videospiller"
	if v.Platform == "youtube" {
		title = "YouTube-video"
	} else if v.Platform == "vimeo" {
		title = "Vimeo-video"
	}
	return fmt.Sprintf(
		`<div class="video-embed" data-video-platform="%s"><iframe src="%s" title="%s" loading="lazy" allow="encrypted-media; picture-in-picture; web-share" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe></div>`,
		htmlstd.EscapeString(v.Platform),
		htmlstd.EscapeString(v.EmbedURL),
		title,
	)
}

func onlyDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func isHostOrSubdomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
