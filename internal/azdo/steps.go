package azdo

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TestStep is one action of a test case and its expected result.
type TestStep struct {
	Action   string `json:"action"`
	Expected string `json:"expected"`
}

// ParseTestStepXML reads the Microsoft.VSTS.TCM.Steps markup into ordered
// steps. Each <step> holds two parameterizedString elements, action then
// expected result, whose text is HTML; it is reduced to plain text. Steps
// inside <compref> (shared step references) are flattened in document
// order. Missing or malformed markup yields an empty slice, never an error.
func ParseTestStepXML(markup string) []TestStep {
	steps := []TestStep{}
	if strings.TrimSpace(markup) == "" {
		return steps
	}

	dec := xml.NewDecoder(strings.NewReader(markup))
	dec.Entity = xml.HTMLEntity

	var (
		inStep  bool
		params  []string
		depth   int // > 0 while inside a parameterizedString
		current strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return []TestStep{}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				continue
			}
			switch t.Name.Local {
			case "step":
				inStep, params = true, nil
			case "parameterizedString":
				if inStep {
					depth = 1
					current.Reset()
				}
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
				if depth == 0 {
					params = append(params, current.String())
				}
				continue
			}
			if t.Name.Local == "step" && inStep {
				var s TestStep
				if len(params) > 0 {
					s.Action = htmlText(params[0])
				}
				if len(params) > 1 {
					s.Expected = htmlText(params[1])
				}
				steps = append(steps, s)
				inStep = false
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
		}
	}
	return steps
}

// StepsFromWorkItem parses the steps field of a Test Case work item
// document.
func StepsFromWorkItem(doc Document) []TestStep {
	return ParseTestStepXML(stringField(doc, "fields", FieldTestSteps))
}

// FormatTestStepXML renders steps as Microsoft.VSTS.TCM.Steps markup.
// Steps with an expected result are validate steps, the rest action steps.
func FormatTestStepXML(steps []TestStep) string {
	var b strings.Builder
	b.WriteString(`<steps id="0" last="` + strconv.Itoa(len(steps)) + `">`)
	for i, s := range steps {
		kind := "ActionStep"
		if strings.TrimSpace(s.Expected) != "" {
			kind = "ValidateStep"
		}
		b.WriteString(`<step id="` + strconv.Itoa(i+1) + `" type="` + kind + `">`)
		writeParameterized(&b, s.Action)
		writeParameterized(&b, s.Expected)
		b.WriteString(`<description/></step>`)
	}
	b.WriteString(`</steps>`)
	return b.String()
}

// writeParameterized stores text as formatted (HTML) content, so it is
// HTML-escaped before being XML-escaped. Newlines become <BR/>.
func writeParameterized(b *strings.Builder, text string) {
	rich := strings.ReplaceAll(html.EscapeString(text), "\n", "<BR/>")
	b.WriteString(`<parameterizedString isformatted="true">`)
	_ = xml.EscapeText(b, []byte(rich))
	b.WriteString(`</parameterizedString>`)
}

var blockElements = map[atom.Atom]bool{
	atom.P:   true,
	atom.Div: true,
	atom.Li:  true,
	atom.Tr:  true,
	atom.H1:  true,
	atom.H2:  true,
	atom.H3:  true,
	atom.Pre: true,
}

// htmlText reduces rich-text HTML to plain text: one line per block
// element or <br>, runs of whitespace collapsed.
func htmlText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseLines(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseLines(s)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return collapseLines(b.String())
}

func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
