package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Bodies are rendered before enqueueing; the worker only delivers.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

func (j EmailJob) Message() EmailMessage {
	return EmailMessage{To: j.To, Subject: j.Subject, Text: j.Text, HTML: j.HTML}
}
