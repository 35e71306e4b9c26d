package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContentInfo is what the stores keep about a rendered body besides the HTML.
type ContentInfo struct {
	HasCode   bool
	HasImages bool
	Plain     string
	WordCount int
}

// EnhanceHTMLContent 为 HTML 中的图片增加安全和优化属性
func EnhanceHTMLContent(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	// inline code gets a class so the client can style it apart from blocks
	doc.Find("code").Each(func(i int, s *goquery.Selection) {
		if s.Parent().Is("pre") {
			return
		}
		if _, ok := s.Attr("class"); !ok {
			s.SetAttr("class", "inline-code")
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	out, _ := doc.Find("body").Html()
	if out == "" {
		out, _ = doc.Html()
	}
	return out
}

// AnalyzeHTML reports code blocks, images and the plain text of htmlStr.
func AnalyzeHTML(htmlStr string) ContentInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ContentInfo{Plain: htmlStr}
	}

	var info ContentInfo
	doc.Find("code, pre").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "" {
			info.HasCode = true
			return false
		}
		return true
	})
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && src != "" {
			info.HasImages = true
			return false
		}
		return true
	})

	info.Plain = PlainText(doc.Selection)
	info.WordCount = len(strings.Fields(info.Plain))
	return info
}

// PlainText joins the text nodes under s with single spaces.
func PlainText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(i int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

// Content is a processed markdown body ready to be stored.
type Content struct {
	Markdown string
	HTML     string
	ContentInfo
}

// ProcessContent renders, sanitizes and analyzes a markdown body.
func ProcessContent(markdown string) Content {
	rendered := EnhanceHTMLContent(RenderMarkdown(markdown))
	return Content{
		Markdown:    markdown,
		HTML:        rendered,
		ContentInfo: AnalyzeHTML(rendered),
	}
}
