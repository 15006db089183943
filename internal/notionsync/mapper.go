package notionsync

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// Property names of the Notion expenses database.
const (
	PropDescription   = "Description"
	PropTransactionID = "Transaction ID"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCategory      = "Category"
	PropType          = "Type"
	PropTags          = "Tags"
	PropBy            = "By"
)

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

// TransactionToNotionProperties converts a transaction to Notion properties:
// Description (title), Transaction ID, Date, Amount, Category, Type, Tags, By.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: richText(tx.Description),
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(tx.ID),
		},
		PropAmount: notionapi.NumberProperty{
			Number: tx.Amount,
		},
		PropType: notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
	}

	// Date is omitted when it does not parse; Notion rejects empty dates.
	if d, err := tx.Time(); err == nil {
		nd := notionapi.Date(d)
		props[PropDate] = notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &nd},
		}
	}

	if tx.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{
				// Notion select options cannot contain commas.
				Name: strings.ReplaceAll(string(tx.Category), ",", " "),
			},
		}
	}

	if len(tx.Tags) > 0 {
		opts := make([]notionapi.Option, 0, len(tx.Tags))
		for _, tag := range tx.Tags {
			opts = append(opts, notionapi.Option{Name: strings.ReplaceAll(tag, ",", " ")})
		}
		props[PropTags] = notionapi.MultiSelectProperty{
			MultiSelect: opts,
		}
	}

	if tx.By != "" {
		props[PropBy] = notionapi.RichTextProperty{
			RichText: richText(tx.By),
		}
	}

	return props
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	case notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	}
	return ""
}
