// Package notify delivers share lifecycle emails through an external mail
// relay. Delivery is best effort: both calls return a success flag and
// never propagate errors to the caller.
package notify

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"cadview/config"
	"cadview/models"
)

type Notifier interface {
	SendShareNotification(model *models.Model, recipient, baseURL, password, lang string) bool
	SendRevocationNotification(model *models.Model, recipient, lang string) bool
}

const (
	TemplateShare      = "share"
	TemplateRevocation = "share-revoked"
)

var httpClient = http.Client{}

type Mailer struct{}

type message struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Language string            `json:"language"`
	Data     map[string]string `json:"data"`
}

func (m *Mailer) SendShareNotification(model *models.Model, recipient, baseURL, password, lang string) bool {
	data := map[string]string{
		"filename": model.Filename,
		"format":   model.Format,
	}
	if model.ShareID != nil {
		data["shareUrl"] = baseURL + "/shared/" + *model.ShareID
		if model.ShareDeleteToken != nil {
			data["revokeUrl"] = baseURL + "/revoke-share/" + *model.ShareID + "/" + *model.ShareDeleteToken
		}
	}
	if password != "" {
		// The plaintext password exists only here and in the share request;
		// it is never persisted
		data["password"] = password
	}
	if model.ShareExpiresAt != nil && *model.ShareExpiresAt > 0 {
		data["expires"] = strconv.FormatInt(*model.ShareExpiresAt, 10)
	}
	return (&message{
		Template: TemplateShare,
		To:       recipient,
		Language: lang,
		Data:     data,
	}).send()
}

func (m *Mailer) SendRevocationNotification(model *models.Model, recipient, lang string) bool {
	return (&message{
		Template: TemplateRevocation,
		To:       recipient,
		Language: lang,
		Data: map[string]string{
			"filename": model.Filename,
		},
	}).send()
}

func (msg *message) send() bool {
	if config.MAIL_SERVER == "" {
		log.Printf("Mail relay not configured, skipping %q email to %s", msg.Template, msg.To)
		return false
	}
	buf := bytes.Buffer{}
	json.NewEncoder(&buf).Encode(*msg)
	resp, err := httpClient.Post(config.MAIL_SERVER+"/send", "application/json", &buf)
	if err != nil {
		log.Printf("SendMail, error: %v", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		buf.Reset()
		io.Copy(&buf, resp.Body)
		log.Printf("SendMail error, status: %d, %s", resp.StatusCode, buf.String())
		return false
	}
	return true
}
