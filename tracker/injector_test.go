package tracker

import (
	"fmt"
	"net/url"
	"phishsim/config"
	"phishsim/entity"
	"phishsim/pkg/goutil"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubLanding struct{}

func (stubLanding) LandingURL(messageID uint64, slug string) string {
	if slug == "" {
		slug = "default-landing-page"
	}
	return fmt.Sprintf("http://track.local/landing/%s/%d", slug, messageID)
}

func newTestInjector() Injector {
	return NewInjector(config.Tracking{BaseURL: "http://track.local"}, stubLanding{})
}

func testMessage(id uint64) *entity.Message {
	return &entity.Message{ID: goutil.Uint64(id)}
}

func TestDecorateInsertsAllProbeKinds(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><p>Hello</p></body></html>`, testMessage(42))

	for _, kind := range []string{probePixel, probePixel2, probeSvg, probeCss, probeLink, probeScript} {
		assert.Contains(t, out, "method="+kind)
	}
	assert.Equal(t, 6, strings.Count(out, "/track/open/42?"))
}

func TestDecorateProbeUIDsAreDistinct(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><p>Hello</p></body></html>`, testMessage(42))

	uids := regexp.MustCompile(`uid=([0-9a-f-]+)`).FindAllStringSubmatch(out, -1)
	assert.Len(t, uids, 6)

	seen := make(map[string]bool)
	for _, m := range uids {
		assert.False(t, seen[m[1]], "uid %s reused", m[1])
		seen[m[1]] = true
	}
}

func TestDecorateRewritesLinks(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><a href="http://phish.example/login">Login</a></body></html>`, testMessage(42))

	landing := url.QueryEscape("http://track.local/landing/default-landing-page/42")
	assert.Contains(t, out, "/track/click/42?url="+landing)
	assert.NotContains(t, out, "phish.example")
}

func TestDecorateUsesMessageLandingSlug(t *testing.T) {
	message := testMessage(42)
	message.LandingSlug = goutil.String("it-dept")

	out := newTestInjector().Decorate(
		`<html><body><a href="http://phish.example/x">x</a></body></html>`, message)

	assert.Contains(t, out, url.QueryEscape("http://track.local/landing/it-dept/42"))
}

func TestDecorateSkipsNonNavigableSchemes(t *testing.T) {
	content := `<html><body>` +
		`<a href="mailto:helpdesk@example.com">mail</a>` +
		`<a href="javascript:void(0)">js</a>` +
		`<a href="tel:+6511112222">call</a>` +
		`</body></html>`

	out := newTestInjector().Decorate(content, testMessage(42))

	assert.Contains(t, out, `href="mailto:helpdesk@example.com"`)
	assert.Contains(t, out, `href="javascript:void(0)"`)
	assert.Contains(t, out, `href="tel:+6511112222"`)
}

func TestDecorateWrapsBareImages(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><img src="cat.png" width="100" height="100"/></body></html>`, testMessage(42))

	assert.Regexp(t, `<a href="[^"]*/track/click/42[^"]*"><img[^>]*src="cat.png"`, out)
}

func TestDecorateLeavesWrappedImagesAlone(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><a href="http://phish.example/x"><img src="banner.png"/></a></body></html>`, testMessage(42))

	// the original anchor plus the hidden link probe, nothing more
	assert.Equal(t, 2, strings.Count(out, "<a "))
}

func TestDecorateLeavesOnePixelImagesUnwrapped(t *testing.T) {
	out := newTestInjector().Decorate(
		`<html><body><img src="spacer.gif" width="1" height="1"/></body></html>`, testMessage(42))

	assert.NotRegexp(t, `<a href="[^"]*/track/click/[^"]*"><img`, out)
}

func TestRewriteFallback(t *testing.T) {
	i := &injector{baseURL: "http://track.local", landing: stubLanding{}}

	content := `<p>Hello <a href="http://phish.example/x">here</a>` +
		` and <a href="mailto:a@b.c">mail</a></p>`
	out := i.rewriteFallback(content, 7, i.clickURL(7, ""))

	assert.Contains(t, out, `href="http://track.local/track/click/7?url=`)
	assert.Contains(t, out, `href="mailto:a@b.c"`)
	assert.NotContains(t, out, "phish.example")
	assert.Equal(t, 6, strings.Count(out, "/track/open/7?"))
}

func TestRewriteFallbackInsertsProbesBeforeBodyClose(t *testing.T) {
	i := &injector{baseURL: "http://track.local", landing: stubLanding{}}

	out := i.rewriteFallback(`<html><body><p>Hi</p></body></html>`, 7, i.clickURL(7, ""))

	assert.True(t, strings.HasSuffix(out, "</body></html>"))
	assert.Contains(t, out, "/track/open/7?")
}
