package i18n

import goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

const (
	KeyConfirmationSubject = "email.confirmation.subject"
	KeyConfirmationBody    = "email.confirmation.body"
	KeyCancellationSubject = "email.cancellation.subject"
	KeyCancellationBody    = "email.cancellation.body"
	KeyMailtoSubject       = "mailto.subject"
	KeyMailtoBody          = "mailto.body"
)

var catalogs = map[Language][]*goi18n.Message{
	Spanish: {
		{ID: KeyConfirmationSubject, Other: "Confirmación de tu cita de fisioterapia"},
		{ID: KeyConfirmationBody, Other: `<h1>Hola {{.name}},</h1>
<p>Tu cita ha sido confirmada con éxito.</p>
<p><strong>Fecha y Hora:</strong> {{.when}}</p>
<p><strong>Duración:</strong> {{.duration}} minutos</p>
<p><strong>Ubicación:</strong> {{.location}}</p>
<p>Para gestionar tu cita (cancelar o reprogramar), utiliza el siguiente código en nuestra web:</p>
<p style="font-family: monospace; background-color: #f0f0f0; padding: 10px; border-radius: 5px;">{{.code}}</p>
<p>¡Gracias!</p>
<p>{{.practice}}</p>`},
		{ID: KeyCancellationSubject, Other: "Cancelación de tu cita de fisioterapia"},
		{ID: KeyCancellationBody, Other: `<h1>Hola {{.name}},</h1>
<p>Tu cita programada para el <strong>{{.when}}</strong> ha sido cancelada.</p>
<p>Si esto ha sido un error, por favor, vuelve a reservar en nuestra página web.</p>
<p>Saludos,</p>
<p>{{.practice}}</p>`},
		{ID: KeyMailtoSubject, Other: "Confirmación de Cita: {{.name}} - {{.date}}"},
		{ID: KeyMailtoBody, Other: "Hola,\n\nPor favor, confirma mi cita:\n\n" +
			"Nombre: {{.name}}\nEmail: {{.email}}\nTeléfono: {{.phone}}\nFecha: {{.when}}\nRazón: {{.reason}}\n\nGracias"},
	},
	Catalan: {
		{ID: KeyConfirmationSubject, Other: "Confirmació de la teva cita de fisioteràpia"},
		{ID: KeyConfirmationBody, Other: `<h1>Hola {{.name}},</h1>
<p>La teva cita s'ha confirmat correctament.</p>
<p><strong>Data i hora:</strong> {{.when}}</p>
<p><strong>Durada:</strong> {{.duration}} minuts</p>
<p><strong>Ubicació:</strong> {{.location}}</p>
<p>Per gestionar la teva cita (cancel·lar o reprogramar), fes servir aquest codi a la nostra web:</p>
<p style="font-family: monospace; background-color: #f0f0f0; padding: 10px; border-radius: 5px;">{{.code}}</p>
<p>Gràcies!</p>
<p>{{.practice}}</p>`},
		{ID: KeyCancellationSubject, Other: "Cancel·lació de la teva cita de fisioteràpia"},
		{ID: KeyCancellationBody, Other: `<h1>Hola {{.name}},</h1>
<p>La teva cita programada per al <strong>{{.when}}</strong> s'ha cancel·lat.</p>
<p>Si ha estat un error, torna a reservar a la nostra pàgina web.</p>
<p>Salutacions,</p>
<p>{{.practice}}</p>`},
		{ID: KeyMailtoSubject, Other: "Confirmació de cita: {{.name}} - {{.date}}"},
		{ID: KeyMailtoBody, Other: "Hola,\n\nSi us plau, confirma la meva cita:\n\n" +
			"Nom: {{.name}}\nEmail: {{.email}}\nTelèfon: {{.phone}}\nData: {{.when}}\nMotiu: {{.reason}}\n\nGràcies"},
	},
}
