package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
)

// client implements Service interface
type client struct {
	api *notionapi.Client
}

// New creates a new Notion service with the provided API token
func New(token string) (Service, error) {
	if token == "" {
		return nil, goerr.New("Notion API token is required")
	}

	return &client{
		api: notionapi.NewClient(
			notionapi.Token(token),
			notionapi.WithRetry(3), // Retry up to 3 times on rate limit (HTTP 429)
		),
	}, nil
}

func (c *client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	pageObj, err := c.api.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page", goerr.V("pageID", pageID))
	}

	blocks, err := c.fetchBlocks(ctx, pageID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch page blocks", goerr.V("pageID", pageID))
	}

	return &Page{
		ID:             pageObj.ID.String(),
		Title:          pageTitle(pageObj.Properties),
		URL:            pageObj.URL,
		LastEditedTime: time.Time(pageObj.LastEditedTime),
		Blocks:         blocks,
	}, nil
}

func pageTitle(props notionapi.Properties) string {
	for _, prop := range props {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(title.Title)
		}
	}
	return ""
}

// fetchBlocks retrieves all blocks of a page or block, including nested children
func (c *client) fetchBlocks(ctx context.Context, blockID string) (Blocks, error) {
	var blocks Blocks
	var cursor notionapi.Cursor

	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    100,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("blockID", blockID))
		}

		for _, blockObj := range resp.Results {
			block := convertBlock(blockObj)
			if blockObj.GetHasChildren() {
				children, err := c.fetchBlocks(ctx, blockObj.GetID().String())
				if err != nil {
					return nil, goerr.Wrap(err, "failed to fetch children blocks",
						goerr.V("blockID", blockObj.GetID()),
						goerr.V("blockType", blockObj.GetType()))
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return blocks, nil
}

func convertBlock(blockObj notionapi.Block) Block {
	block := Block{Type: blockObj.GetType()}

	switch b := blockObj.(type) {
	case *notionapi.ParagraphBlock:
		block.Text = plainText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		block.Text = plainText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		block.Text = plainText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		block.Text = plainText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		block.Text = plainText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		block.Text = plainText(b.NumberedListItem.RichText)
	case *notionapi.QuoteBlock:
		block.Text = plainText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		block.Text = plainText(b.Callout.RichText)
	case *notionapi.ToggleBlock:
		block.Text = plainText(b.Toggle.RichText)
	case *notionapi.ToDoBlock:
		block.Text = plainText(b.ToDo.RichText)
		block.Checked = b.ToDo.Checked
	}

	return block
}
