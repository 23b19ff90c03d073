// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WelcomeEmailData holds data for the registration welcome email.
type WelcomeEmailData struct {
	SiteName string
	Name     string
	AppURL   string
}

// MemberAddedEmailData holds data for the board invitation email.
type MemberAddedEmailData struct {
	SiteName    string
	Name        string
	InviterName string
	BoardTitle  string
	BoardURL    string
}

// BuildWelcomeEmail creates a welcome email with both HTML and text bodies.
func BuildWelcomeEmail(data WelcomeEmailData) Email {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	text.WriteString(fmt.Sprintf("Welcome to %s. Create your first board to start organizing work:\n", data.SiteName))
	text.WriteString(data.AppURL + "\n")

	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("Welcome to %s", data.SiteName),
		TextBody: text.String(),
		HTMLBody: render(welcomeHTML, data),
	}
}

// BuildMemberAddedEmail creates the "you were added to a board" email.
func BuildMemberAddedEmail(data MemberAddedEmailData) Email {
	var text bytes.Buffer
	text.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	text.WriteString(fmt.Sprintf("%s added you to the board \"%s\" on %s.\n\n", data.InviterName, data.BoardTitle, data.SiteName))
	text.WriteString("Open the board:\n")
	text.WriteString(data.BoardURL + "\n")

	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s added you to \"%s\"", data.InviterName, data.BoardTitle),
		TextBody: text.String(),
		HTMLBody: render(memberAddedHTML, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var welcomeHTML = template.Must(template.New("welcome").Parse(layoutOpen + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Welcome to {{.SiteName}}. Create your first board to start organizing work.
              </p>
              <a href="{{.AppURL}}" style="display: inline-block; padding: 12px 28px; background-color: #0079bf; color: #ffffff; text-decoration: none; border-radius: 6px;">Open {{.SiteName}}</a>
` + layoutClose))

var memberAddedHTML = template.Must(template.New("member-added").Parse(layoutOpen + `
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.InviterName}} added you to the board <strong>{{.BoardTitle}}</strong>.
              </p>
              <a href="{{.BoardURL}}" style="display: inline-block; padding: 12px 28px; background-color: #0079bf; color: #ffffff; text-decoration: none; border-radius: 6px;">Open board</a>
` + layoutClose))

const layoutOpen = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px;">`

const layoutClose = `            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
