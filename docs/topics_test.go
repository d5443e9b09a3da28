package docs

import (
	"bufio"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in the index can be loaded, and every topic is listed.
	content, err := Index()
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	var listed []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if matches := topicRegex.FindStringSubmatch(scanner.Text()); len(matches) > 1 {
			listed = append(listed, strings.TrimSpace(matches[1]))
		}
	}

	for _, topic := range listed {
		t.Run("load_"+topic, func(t *testing.T) {
			if _, err := Topic(topic); err != nil {
				t.Errorf("Topic(%q) error = %v", topic, err)
			}
		})
	}

	all, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}
	if slices.Contains(all, index) {
		t.Errorf("List() contains the index")
	}
}

func TestTopicNotFound(t *testing.T) {
	if _, err := Topic("no-such-topic"); err == nil {
		t.Errorf("Topic(no-such-topic) error = nil")
	}
}

func TestAllTopics(t *testing.T) {
	all, err := List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	content, err := Topic("*")
	if err != nil {
		t.Fatalf("Topic(*) error = %v", err)
	}
	for _, topic := range all {
		one, _ := Topic(topic)
		if !strings.Contains(content, one) {
			t.Errorf("Topic(*) does not contain %q", topic)
		}
	}
}

// TestHeadings checks that every topic is a single markdown document with one
// title.
func TestHeadings(t *testing.T) {
	all, err := List()
	if err != nil {
		t.Fatal(err)
	}
	parser := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()
	for _, topic := range append(all, index) {
		t.Run(topic, func(t *testing.T) {
			content, err := Topic(topic)
			if err != nil {
				t.Fatal(err)
			}
			root := parser.Parse(text.NewReader([]byte(content)))
			first, ok := root.FirstChild().(*ast.Heading)
			if !ok || first.Level != 1 {
				t.Fatalf("topic %q does not start with a title", topic)
			}
			titles := 0
			ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if h, ok := n.(*ast.Heading); ok && entering && h.Level == 1 {
					titles++
				}
				return ast.WalkContinue, nil
			})
			if titles != 1 {
				t.Errorf("topic %q has %d titles, want 1", topic, titles)
			}
		})
	}
}
