package emailsvc

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
)

// consoleService writes every message as a MIME document to out. Used in DEV.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger

	outMu sync.Mutex
	out   io.Writer
	wg    sync.WaitGroup
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) *consoleService {
	return &consoleService{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		out:        os.Stdout,
		logger:     logger,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.wg.Add(1)
		go func(msg *core.EmailMessage) {
			defer svc.wg.Done()
			if _, err := svc.deliver(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}(msg)
	}
}

func (svc *consoleService) Send(msg *core.EmailMessage) error {
	sent, err := svc.deliver(msg)
	if err != nil {
		return err
	}
	if !sent {
		return core.ErrEmptyEmail
	}
	return nil
}

func (svc *consoleService) Wait() {
	svc.wg.Wait()
}

// deliver renders msg and writes it out. It reports false when there was nothing to send.
func (svc *consoleService) deliver(msg *core.EmailMessage) (bool, error) {
	if err := msg.Render(); err != nil {
		return false, errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return false, nil
	}

	doc, err := svc.mime(*msg)
	if err != nil {
		return false, err
	}
	svc.outMu.Lock()
	defer svc.outMu.Unlock()
	if svc.out != nil {
		if _, err = fmt.Fprintln(svc.out, doc); err != nil {
			return false, errors.Wrap(err, "writing email")
		}
	}
	return true, nil
}

func (svc *consoleService) mime(msg core.EmailMessage) (string, error) {
	doc := new(strings.Builder)

	header := [][2]string{
		{"From", svc.from.String()},
		{"MIME-Version", "1.0"},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"Subject", svc.subjPrefix + msg.Subject},
		{"To", joinAddresses(msg.To)},
		{"Cc", joinAddresses(msg.Cc)},
		{"Bcc", joinAddresses(msg.Bcc)},
	}
	for _, h := range header {
		if h[1] != "" {
			_, _ = fmt.Fprintf(doc, "%s: %s\r\n", h[0], h[1])
		}
	}

	altW := multipart.NewWriter(doc)
	var mixedW *multipart.Writer
	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(doc)
		_, _ = fmt.Fprintf(doc, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mixedW.Boundary())
		_, err := mixedW.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()},
		})
		if err != nil {
			return "", errors.Wrap(err, "creating multipart/alternative part")
		}
	} else {
		_, _ = fmt.Fprintf(doc, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())
	}

	parts := [][2]string{{"text/plain; charset=utf-8", msg.TextContent}}
	if msg.HTMLContent != "" {
		parts = append(parts, [2]string{"text/html; charset=utf-8", msg.HTMLContent})
	}
	for _, p := range parts {
		w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {p[0]}})
		if err != nil {
			return "", errors.Wrapf(err, "creating %s part", p[0])
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", p[1])
	}
	_ = altW.Close()

	if mixedW != nil {
		for _, at := range msg.Attachments {
			w, err := mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename},
			})
			if err != nil {
				return "", errors.Wrapf(err, "creating %s part", at.ContentType)
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
		_ = mixedW.Close()
	}
	return doc.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, a := range addrs {
		strs = append(strs, a.String())
	}
	return strings.Join(strs, ", ")
}

// ConsoleServiceMock sends synchronously, prints nothing and keeps every sent message.
// Messages passed to Send fail with the error registered for their first recipient by FailFor.
type ConsoleServiceMock struct {
	consoleService

	mu    sync.Mutex
	sent  []core.EmailMessage
	fails map[string]error
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			from:       conf.DefaultFromEmail(),
			subjPrefix: "[" + conf.AppName + "] ",
		},
	}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		sent, err := svc.deliver(msg)
		if err != nil {
			panic(err)
		}
		if sent {
			svc.record(msg)
		}
	}
}

func (svc *ConsoleServiceMock) Send(msg *core.EmailMessage) error {
	if msg.HasRecipients() {
		svc.mu.Lock()
		err := svc.fails[msg.To[0].Address]
		svc.mu.Unlock()
		if err != nil {
			return err
		}
	}
	if err := svc.consoleService.Send(msg); err != nil {
		return err
	}
	svc.record(msg)
	return nil
}

// FailFor makes Send return err for messages addressed to addr.
func (svc *ConsoleServiceMock) FailFor(addr string, err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.fails == nil {
		svc.fails = make(map[string]error)
	}
	svc.fails[addr] = err
}

func (svc *ConsoleServiceMock) record(msg *core.EmailMessage) {
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
}

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.fails = nil
	svc.mu.Unlock()
}
