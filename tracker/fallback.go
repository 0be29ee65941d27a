package tracker

import (
	"fmt"
	"regexp"
	"strings"
)

var hrefPattern = regexp.MustCompile(`(?is)(<a[^>]*?\s+href=)(["']?)([^"'\s>]+)(["']?)`)

// rewriteFallback is the degraded path for content the HTML parser cannot
// handle: links are rewritten with a regex and the probe markup is appended
// textually, before </body> when one exists.
func (i *injector) rewriteFallback(content string, id uint64, clickURL string) string {
	content = hrefPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := hrefPattern.FindStringSubmatch(match)
		if isSkippedScheme(groups[3]) {
			return match
		}
		return fmt.Sprintf(`%shref="%s"`, groups[1], clickURL)
	})

	probes := i.probeMarkup(id)
	if strings.Contains(content, "</body>") {
		return strings.Replace(content, "</body>", probes+"</body>", 1)
	}

	return content + probes
}

func (i *injector) probeMarkup(id uint64) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:none;">`,
		i.openURL(id, probePixel)))
	b.WriteString(fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:block;">`,
		i.openURL(id, probePixel2)))
	b.WriteString(fmt.Sprintf(`<img src="%s" width="1" height="1" alt="" style="display:none;">`,
		i.openURL(id, probeSvg)))
	b.WriteString(fmt.Sprintf(`<div style="background-image:url(%s);width:1px;height:1px;"></div>`,
		i.openURL(id, probeCss)))
	b.WriteString(fmt.Sprintf(`<a href="%s" style="display:none;font-size:1px;color:transparent;">.</a>`,
		i.openURL(id, probeLink)))
	b.WriteString(fmt.Sprintf(`<script>var img = new Image(); img.src = "%s";</script>`,
		i.openURL(id, probeScript)))

	return b.String()
}
