package emailsvc

import (
	"bytes"
	"fmt"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/tests"
)

func newTestConsole(t *testing.T) (*consoleService, *bytes.Buffer) {
	t.Helper()
	conf := core.NewTestConfig()
	svc := NewConsoleService(conf, testutil.NewLogger(conf))
	out := new(bytes.Buffer)
	svc.out = out
	return svc, out
}

func TestConsoleService_SendMessages(t *testing.T) {
	svc, out := newTestConsole(t)

	msgs := make([]*core.EmailMessage, 0, 5)
	for i := 0; i < 5; i++ {
		msgs = append(msgs, &core.EmailMessage{
			To:      []mail.Address{{Address: fmt.Sprintf("resp%d@mail.com", i)}},
			Subject: fmt.Sprintf("Aviso %d", i),
			BodyStr: "corpo",
		})
	}
	svc.SendMessages(msgs...)
	svc.Wait()

	doc := out.String()
	for i := 0; i < 5; i++ {
		assert.Contains(t, doc, fmt.Sprintf("Subject: [IBUC] Aviso %d", i))
	}
	assert.Equal(t, 5, strings.Count(doc, "MIME-Version: 1.0"))
}

func TestConsoleService_Send(t *testing.T) {
	t.Run("no recipient", func(t *testing.T) {
		svc, out := newTestConsole(t)
		err := svc.Send(&core.EmailMessage{Subject: "Aviso", BodyStr: "corpo"})
		assert.Equal(t, core.ErrEmptyEmail, err)
		assert.Empty(t, out.String())
	})

	t.Run("no content", func(t *testing.T) {
		svc, out := newTestConsole(t)
		err := svc.Send(&core.EmailMessage{To: []mail.Address{{Address: "resp@mail.com"}}, Subject: "Aviso"})
		assert.Equal(t, core.ErrEmptyEmail, err)
		assert.Empty(t, out.String())
	})

	t.Run("with attachment", func(t *testing.T) {
		svc, out := newTestConsole(t)
		msg := &core.EmailMessage{
			To:      []mail.Address{{Name: "Resp", Address: "resp@mail.com"}},
			Subject: "Mensalidade",
			BodyStr: "segue o pix",
		}
		require.NoError(t, msg.Attach(strings.NewReader("chave: ibuc@example.com"), "pix.txt", "text/plain; charset=utf-8"))
		require.NoError(t, svc.Send(msg))

		doc := out.String()
		assert.Contains(t, doc, "Content-Type: multipart/mixed")
		assert.Contains(t, doc, "Content-Disposition: attachment; filename=pix.txt")
		assert.Contains(t, doc, msg.Attachments[0].Content.String())
		assert.Contains(t, doc, "segue o pix")
	})
}

func TestSendgridService_build(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, testutil.NewLogger(conf))

	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Resp", Address: "resp@mail.com"}},
		Bcc:         []mail.Address{{Address: "secretaria@mail.com"}},
		Subject:     "Mensalidade",
		TextContent: "segue o pix",
	}
	require.NoError(t, msg.Attach(strings.NewReader("chave: ibuc@example.com"), "pix.txt", "text/plain"))

	m := svc.build(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[IBUC] Mensalidade", m.Personalizations[0].Subject)
	assert.Len(t, m.Personalizations[0].BCC, 1)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "pix.txt", m.Attachments[0].Filename)
	assert.Equal(t, msg.Attachments[0].Content.String(), m.Attachments[0].Content)
}

func TestSendgridService_Send(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, testutil.NewLogger(conf))

	err := svc.Send(&core.EmailMessage{Subject: "Aviso", BodyStr: "corpo"})
	assert.Equal(t, core.ErrEmptyEmail, err)
}
