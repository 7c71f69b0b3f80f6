package notionreport

import (
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/omhartigan/billpayer-recon/internal/recon"
)

// OutcomeToNotionProperties converts one outcome record to Notion page
// properties. The title combines the bill payer and the operation so pages
// read sensibly in a database view; Run ID is what the sync uses to find a
// run's own pages again.
func OutcomeToNotionProperties(runID string, runTime time.Time, seq int, rec recon.OutcomeRecord) notionapi.Properties {
	props := notionapi.Properties{
		"Entry": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: fmt.Sprintf("%s — %s", rec.BillPayer, rec.Operation),
					},
				},
			},
		},
		"Run ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: runID,
					},
				},
			},
		},
		"Sequence": notionapi.NumberProperty{
			Number: float64(seq),
		},
		"Bill Payer": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.BillPayer,
					},
				},
			},
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(rec.Operation),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: rec.Amount,
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(rec.Status),
			},
		},
		"Run Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(runTime)
					return &d
				}(),
			},
		},
	}

	if rec.Detail != "" {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rec.Detail,
					},
				},
			},
		}
	}

	return props
}

// extractRunID extracts the run id from a Notion page's properties.
// Returns empty string if not found.
func extractRunID(page notionapi.Page) string {
	if prop, ok := page.Properties["Run ID"]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}
