// Package tracker decorates outbound message content with engagement
// probes. It is a pure transform: no storage, no delivery, invoked once per
// outgoing message right before the content is handed to the transport.
package tracker

import (
	"bytes"
	"fmt"
	"net/url"
	"phishsim/config"
	"phishsim/entity"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LandingResolver yields the destination a recipient lands on after a
// tracked click is recorded.
type LandingResolver interface {
	LandingURL(messageID uint64, slug string) string
}

type Injector interface {
	// Decorate returns the message content with open probes embedded and
	// every link rewritten through the click-tracking indirection.
	Decorate(content string, message *entity.Message) string
}

type injector struct {
	baseURL string
	landing LandingResolver
}

func NewInjector(cfg config.Tracking, landing LandingResolver) Injector {
	return &injector{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		landing: landing,
	}
}

// Probe kinds. Each maps to a distinct retrieval mechanism in the mail
// client so that blocking one does not blind the others.
const (
	probePixel  = "pixel1"
	probePixel2 = "pixel2"
	probeSvg    = "svg"
	probeCss    = "css"
	probeLink   = "link"
	probeScript = "script"
)

// schemes whose links are not navigable and must be left untouched
var skipSchemes = []string{"javascript:", "mailto:", "tel:"}

func (i *injector) Decorate(content string, message *entity.Message) string {
	var (
		id       = message.GetID()
		clickURL = i.clickURL(id, message.GetLandingSlug())
	)

	decorated, err := i.rewriteTree(content, id, clickURL)
	if err != nil {
		// Degraded mode for content the parser rejects: regex link rewrite
		// plus probes appended textually.
		log.Error().Msgf("html rewrite failed, falling back to regex, message_id: %d, err: %v", id, err)
		return i.rewriteFallback(content, id, clickURL)
	}

	return decorated
}

func (i *injector) openURL(id uint64, kind string) string {
	return fmt.Sprintf("%s/track/open/%d?uid=%s&method=%s&t=%d",
		i.baseURL, id, uuid.New().String(), kind, time.Now().UnixMilli())
}

func (i *injector) clickURL(id uint64, slug string) string {
	landingURL := i.landing.LandingURL(id, slug)
	return fmt.Sprintf("%s/track/click/%d?url=%s", i.baseURL, id, url.QueryEscape(landingURL))
}

func (i *injector) rewriteTree(content string, id uint64, clickURL string) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		return "", fmt.Errorf("no body element after parse")
	}

	rewriteLinks(doc, clickURL)
	wrapBareImages(doc, clickURL)
	i.insertOpenProbes(body, id)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// insertOpenProbes places redundant probes at several document locations:
// a pixel at the top of the body, a second pixel after the first
// block-level element, and the remaining kinds at the end.
func (i *injector) insertOpenProbes(body *html.Node, id uint64) {
	topPixel := pixelNode(i.openURL(id, probePixel), "display:none;")
	body.InsertBefore(topPixel, body.FirstChild)

	altPixel := pixelNode(i.openURL(id, probePixel2), "display:block;")
	if block := firstBlockElement(body, topPixel); block != nil {
		block.Parent.InsertBefore(altPixel, block.NextSibling)
	} else {
		body.AppendChild(altPixel)
	}

	body.AppendChild(pixelNode(i.openURL(id, probeSvg), "display:none;"))
	body.AppendChild(cssProbeNode(i.openURL(id, probeCss)))
	body.AppendChild(hiddenLinkNode(i.openURL(id, probeLink)))
	body.AppendChild(scriptProbeNode(i.openURL(id, probeScript)))
}

func rewriteLinks(doc *html.Node, clickURL string) {
	for _, a := range collectElements(doc, atom.A) {
		for idx, attr := range a.Attr {
			if attr.Key != "href" {
				continue
			}
			if isSkippedScheme(attr.Val) {
				break
			}
			a.Attr[idx].Val = clickURL
			break
		}
	}
}

// wrapBareImages makes images clickable by wrapping each one that is not
// already inside an anchor. 1x1 images are probes, not content; wrapping
// them would turn opens into clicks.
func wrapBareImages(doc *html.Node, clickURL string) {
	for _, img := range collectElements(doc, atom.Img) {
		if hasAncestor(img, atom.A) {
			continue
		}
		if attrValue(img, "width") == "1" && attrValue(img, "height") == "1" {
			continue
		}

		a := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.A,
			Data:     "a",
			Attr:     []html.Attribute{{Key: "href", Val: clickURL}},
		}

		parent := img.Parent
		parent.InsertBefore(a, img)
		parent.RemoveChild(img)
		a.AppendChild(img)
	}
}

func isSkippedScheme(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range skipSchemes {
		if strings.HasPrefix(h, scheme) {
			return true
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collectElements(n *html.Node, a atom.Atom) []*html.Node {
	var res []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			res = append(res, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return res
}

func firstBlockElement(body *html.Node, skip *html.Node) *html.Node {
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c == skip || c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Div, atom.P, atom.Table:
			return c
		}
	}
	return nil
}

func hasAncestor(n *html.Node, a atom.Atom) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == a {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func pixelNode(src, style string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Img,
		Data:     "img",
		Attr: []html.Attribute{
			{Key: "src", Val: src},
			{Key: "width", Val: "1"},
			{Key: "height", Val: "1"},
			{Key: "alt", Val: ""},
			{Key: "style", Val: style},
		},
	}
}

func cssProbeNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "style", Val: fmt.Sprintf("background-image:url(%s);width:1px;height:1px;", src)},
		},
	}
}

func hiddenLinkNode(href string) *html.Node {
	a := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.A,
		Data:     "a",
		Attr: []html.Attribute{
			{Key: "href", Val: href},
			{Key: "style", Val: "display:none;font-size:1px;color:transparent;"},
		},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: "."})
	return a
}

func scriptProbeNode(src string) *html.Node {
	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf(`var img = new Image(); img.src = "%s";`, src),
	})
	return script
}
