package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// pageSize is the largest page the Notion query API returns.
const pageSize = 100

// Pages is the slice of the Notion API the sync talks to. Tests swap in a
// fake.
type Pages interface {
	// ListPages returns one page of database rows and the cursor of the next
	// one, or "" when there are no more.
	ListPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) ([]notionapi.Page, notionapi.Cursor, error)
	// AddPage creates a database row and returns its page ID.
	AddPage(ctx context.Context, databaseID string, props notionapi.Properties) (notionapi.ObjectID, error)
}

// Client implements Pages with an integration token.
type Client struct {
	api *notionapi.Client
}

// NewClient returns a Client authenticated with token.
func NewClient(token string) *Client {
	return &Client{api: notionapi.NewClient(notionapi.Token(token))}
}

func (c *Client) ListPages(ctx context.Context, databaseID string, cursor notionapi.Cursor) ([]notionapi.Page, notionapi.Cursor, error) {
	req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
	if cursor != "" {
		req.StartCursor = cursor
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, "", fmt.Errorf("ListPages: %w", err)
	}
	if !resp.HasMore {
		return resp.Results, "", nil
	}
	return resp.Results, resp.NextCursor, nil
}

func (c *Client) AddPage(ctx context.Context, databaseID string, props notionapi.Properties) (notionapi.ObjectID, error) {
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("AddPage: %w", err)
	}
	return page.ID, nil
}
