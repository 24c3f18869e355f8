package notion

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// Service provides interface to Notion API
type Service interface {
	// GetPage retrieves a page with all of its blocks, children included
	GetPage(ctx context.Context, pageID string) (*Page, error)
}

// Page is a Notion page reduced to what ingestion needs
type Page struct {
	ID             string
	Title          string
	URL            string
	LastEditedTime time.Time
	Blocks         Blocks
}

// Block is a Notion block with its plain text and nested children
type Block struct {
	Type     notionapi.BlockType
	Text     string
	Checked  bool
	Children Blocks
}

// Blocks is a slice of Block with helper methods
type Blocks []Block

// ToText renders blocks as plain text. Headings, paragraphs and toggles become separate
// paragraphs; list items keep their markers so that the chunker can break between them.
func (b Blocks) ToText() string {
	var sb strings.Builder
	b.writeText(&sb, 0)
	return strings.TrimSpace(sb.String())
}

func (b Blocks) writeText(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	counter := 0

	for _, block := range b {
		if block.Type != notionapi.BlockTypeNumberedListItem {
			counter = 0
		}

		switch block.Type {
		case notionapi.BlockTypeHeading1, notionapi.BlockTypeHeading2, notionapi.BlockTypeHeading3:
			if block.Text != "" {
				sb.WriteString("\n")
				sb.WriteString(block.Text)
				sb.WriteString("\n\n")
			}

		case notionapi.BlockTypeBulletedListItem:
			sb.WriteString(indent + "- " + block.Text + "\n")

		case notionapi.BlockTypeNumberedListItem:
			counter++
			sb.WriteString(indent + strconv.Itoa(counter) + ". " + block.Text + "\n")

		case notionapi.BlockTypeToDo:
			mark := "[ ] "
			if block.Checked {
				mark = "[x] "
			}
			sb.WriteString(indent + "- " + mark + block.Text + "\n")

		case notionapi.BlockTypeToggle:
			// FAQ pages keep the question in the toggle and the answer in its children
			sb.WriteString(block.Text + "\n")
			block.Children.writeText(sb, 0)
			sb.WriteString("\n")
			continue

		case notionapi.BlockTypeDivider:
			sb.WriteString("\n")

		default:
			if block.Text != "" {
				sb.WriteString(indent + block.Text + "\n\n")
			}
		}

		if len(block.Children) > 0 {
			block.Children.writeText(sb, depth+1)
		}
	}
}

func plainText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, t := range rt {
		sb.WriteString(t.PlainText)
	}
	return sb.String()
}
