package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// notionTextLimit is the maximum length of one rich text object.
const notionTextLimit = 2000

// NotionService defines the subset of the Notion API used for notifications.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// NotionClient is the concrete implementation of NotionService using the official Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// NotionSink records each run summary as a page in a Notion database with
// "Name", "Date" and "Message" properties.
type NotionSink struct {
	service    NotionService
	databaseID string
	now        func() time.Time
}

// NewNotionSink returns a sink writing to databaseID.
func NewNotionSink(service NotionService, databaseID string) *NotionSink {
	return &NotionSink{service: service, databaseID: databaseID, now: time.Now}
}

// Send creates one page for message.
func (s *NotionSink) Send(ctx context.Context, message string) error {
	if _, err := s.service.CreatePage(ctx, s.databaseID, notionProperties(message, s.now())); err != nil {
		return fmt.Errorf("notion notification: %w", err)
	}
	return nil
}

func notionProperties(message string, at time.Time) notionapi.Properties {
	title, _, _ := strings.Cut(message, "\n")

	body := message
	if r := []rune(body); len(r) > notionTextLimit {
		body = string(r[:notionTextLimit])
	}

	date := notionapi.Date(at)
	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: title},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		"Message": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: body},
				},
			},
		},
	}
}
