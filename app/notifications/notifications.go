// Package notifications defines the stock alerts sent to the manager.
package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("alerts").Funcs(template.FuncMap{
	"abs": func(n int) int {
		if n < 0 {
			return -n
		}
		return n
	},
}).ParseFS(templateFS, "templates/*.html"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notifications: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ------------------- Low stock -------------------

// LowStock tells the manager a product is at or under its threshold.
type LowStock struct {
	Product models.Product
}

func (n *LowStock) Via() []string { return []string{"mail", "slack"} }

func (n *LowStock) Subject() string {
	return "Low stock alert: " + n.Product.Name
}

func (n *LowStock) ToMail() (notification.MailData, error) {
	p := n.Product
	html, err := render("low_stock.html", map[string]any{
		"Name":              p.Name,
		"Quantity":          p.Quantity,
		"LowStockThreshold": p.LowStockThreshold,
		"Category":          p.CategoryName(),
	})
	if err != nil {
		return notification.MailData{}, err
	}
	return notification.MailData{
		Subject: n.Subject(),
		HTML:    html,
		Text: fmt.Sprintf("%s is running low: %d on hand (threshold %d).",
			p.Name, p.Quantity, p.LowStockThreshold),
	}, nil
}

func (n *LowStock) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: n.Subject(),
		Attachments: []notification.SlackAttachment{{
			Color: "warning",
			Title: n.Product.Name,
			Text:  fmt.Sprintf("Quantity %d, threshold %d", n.Product.Quantity, n.Product.LowStockThreshold),
		}},
	}
}

// ------------------- Expiry -------------------

// Expiry tells the manager a product expires within the horizon (or already has).
type Expiry struct {
	Product  models.Product
	DaysLeft int
}

func (n *Expiry) Via() []string { return []string{"mail", "slack"} }

func (n *Expiry) Subject() string {
	return fmt.Sprintf("Expiry alert: %s expires in %d day(s)", n.Product.Name, n.DaysLeft)
}

func (n *Expiry) ToMail() (notification.MailData, error) {
	p := n.Product
	expiry := ""
	if p.ExpiryDate != nil {
		expiry = p.ExpiryDate.Format("2006-01-02")
	}
	html, err := render("expiry.html", map[string]any{
		"Name":       p.Name,
		"DaysLeft":   n.DaysLeft,
		"ExpiryDate": expiry,
		"Quantity":   p.Quantity,
	})
	if err != nil {
		return notification.MailData{}, err
	}
	return notification.MailData{
		Subject: n.Subject(),
		HTML:    html,
		Text:    fmt.Sprintf("%s expires on %s (%d day(s)).", p.Name, expiry, n.DaysLeft),
	}, nil
}

func (n *Expiry) ToSlack() notification.SlackData {
	color := "warning"
	if n.DaysLeft <= 0 {
		color = "danger"
	}
	return notification.SlackData{
		Text:        n.Subject(),
		Attachments: []notification.SlackAttachment{{Color: color, Title: n.Product.Name}},
	}
}
