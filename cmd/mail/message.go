package main

import (
	"fmt"
	"html/template"

	"github.com/montage-crm/planner/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// buildMessage renders the mail for one queued message. Errors here are
// permanent: retrying the same message cannot succeed.
func buildMessage(from string, mm domain.MailMessage, tmpls map[string]*template.Template) (*mail.Msg, error) {
	mt, ok := mailTemplates[mm.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mail type %q", mm.Type)
	}
	tmpl, ok := tmpls[mm.Type]
	if !ok {
		return nil, fmt.Errorf("no template loaded for %q", mm.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, err
	}
	if err := m.To(mm.To); err != nil {
		return nil, err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, mm.Data); err != nil {
		return nil, err
	}
	m.Subject(mt.subject)

	return m, nil
}
