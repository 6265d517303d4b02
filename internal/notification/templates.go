package notification

import (
	"bytes"
	"html/template"
)

const layoutStart = `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;background:#f5f5f5;padding:24px">
<div style="max-width:560px;margin:auto;background:#fff;border-radius:8px;padding:32px">
<h2 style="color:#1f3a5f;margin-top:0">{{.SiteName}}</h2>`

const layoutEnd = `<p style="color:#888;font-size:12px;margin-top:32px">This message was sent by {{.SiteName}}. Please do not reply to this email.</p>
</div></body></html>`

var templates = template.Must(template.New("mail").Parse(`
{{define "otp"}}` + layoutStart + `
<p>Hello {{.Name}},</p>
<p>{{.Intro}}</p>
<p style="font-size:32px;letter-spacing:8px;font-weight:bold;text-align:center;color:#1f3a5f">{{.Code}}</p>
<p>The code expires at {{.ExpiresAt}} and can be tried {{.Attempts}} times.</p>
<p>If you did not request this, you can ignore this email.</p>
` + layoutEnd + `{{end}}

{{define "inquiry_reply"}}` + layoutStart + `
<p>Hello {{.Name}},</p>
<p>We replied to your inquiry about <strong>{{.PropertyTitle}}</strong>:</p>
<blockquote style="border-left:4px solid #1f3a5f;margin:16px 0;padding-left:12px">{{.Message}}</blockquote>
<p>You can continue the conversation from your account.</p>
` + layoutEnd + `{{end}}

{{define "new_inquiry"}}` + layoutStart + `
<p>A new inquiry was received.</p>
<table cellpadding="4">
<tr><td><strong>Property</strong></td><td>{{.PropertyTitle}}</td></tr>
<tr><td><strong>From</strong></td><td>{{.Name}} &lt;{{.Email}}&gt;</td></tr>
{{if .Phone}}<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>{{end}}
<tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>
</table>
<blockquote style="border-left:4px solid #1f3a5f;margin:16px 0;padding-left:12px">{{.Message}}</blockquote>
` + layoutEnd + `{{end}}
`))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
