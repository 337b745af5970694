package i18n

var catalog = map[string]map[string]string{
	"en-US": {
		"application.title":   "Cloud Dwh Architect",
		"application.version": "Version {major}.{minor}.{patch} (Build: {build})",

		"language.enUS": "English (US)",
		"language.deDE": "German (DE)",

		"button.back":  "Back",
		"button.close": "Close",

		"dialog.unexpectedError.title":   "Unexpected Error",
		"dialog.unexpectedError.message": "An unexpected error has occurred. This should not have happened. Please contact your administrator and pass on the detailed error message.",
		"dialog.discardChanges.title":    "Discard Changes",
		"dialog.discardChanges.message":  "There are unsaved changes. Do you want to discard them and leave the editor?",

		"validation.required":         "The input field must not be empty.",
		"validation.invalidEmail":     "The email address is invalid.",
		"validation.passwordMismatch": "Both passwords must be exactly the same.",
		"validation.invalidOption":    "The selected option is not supported.",

		"authentication.label.email":          "Email Address",
		"authentication.label.firstName":      "First Name",
		"authentication.label.lastName":       "Last Name",
		"authentication.label.password":       "Password",
		"authentication.label.passwordRepeat": "Repeat Password",

		"authentication.error.invalidEmail":      "The email address is invalid.",
		"authentication.error.emailAlreadyInUse": "An account with this email address already exists.",
		"authentication.error.weakPassword":      "The password must be at least 6 characters long.",
		"authentication.error.invalidCredential": "The email address or the password is incorrect.",
		"authentication.error.tooManyRequests":   "Too many failed attempts. Please try again later.",
		"authentication.error.accountLocked":     "The account is locked. An administrator has to activate it before you can log in.",
		"authentication.error.invalidActionCode": "The reset link is invalid or has expired.",
		"authentication.error.sessionExpired":    "Your session has expired. Please log in again.",

		"authentication.login.message":           "Please enter your login details. The password is case sensitive. If you do not yet have an account, you can register a new one. However, it must first be activated by an administrator before you can log in.",
		"authentication.register.dialog.title":   "Account successfully created",
		"authentication.register.dialog.message": "Your account has been created. Please contact an administrator to activate your new account. Only then can you log in to the application.",
		"authentication.reset.dialog.title":      "Password reset requested",
		"authentication.reset.dialog.message":    "If an account exists for {email}, a link to choose a new password has been sent.",
		"authentication.reset.done":              "Your password has been changed. Please log in with the new password.",

		"error.unauthorized": "Please log in to continue.",
		"error.forbidden":    "You do not have permission to perform this action.",
		"error.notFound":     "The requested {scope} was not found.",
		"error.invalidBody":  "The request could not be read.",
		"error.invalidInput": "The input is invalid: {detail}",

		"enum.memberRole.owner":      "Owner",
		"enum.memberRole.manager":    "Project Manager",
		"enum.memberRole.maintainer": "Maintainer",
		"enum.memberRole.deployer":   "Deployer",
		"enum.memberRole.developer":  "Developer",
		"enum.memberRole.visitor":    "Visitor",

		"enum.attributeType.string":  "String",
		"enum.attributeType.number":  "Number",
		"enum.attributeType.boolean": "Boolean",

		"enum.editorMode.create": "Create",
		"enum.editorMode.edit":   "Edit",
		"enum.editorMode.view":   "View",
	},
	"de-DE": {
		"application.title":   "Cloud Dwh Architect",
		"application.version": "Version {major}.{minor}.{patch} (Build: {build})",

		"language.enUS": "Englisch (US)",
		"language.deDE": "Deutsch (DE)",

		"button.back":  "Zurück",
		"button.close": "Schließen",

		"dialog.unexpectedError.title":   "Unerwarteter Fehler",
		"dialog.unexpectedError.message": "Es ist ein unerwarteter Fehler aufgetreten. Dies hätte nicht passieren dürfen. Bitte kontaktieren Sie Ihren Administrator und übergeben Sie ihm die detaillierte Fehlermeldung.",
		"dialog.discardChanges.title":    "Änderungen verwerfen",
		"dialog.discardChanges.message":  "Es gibt ungespeicherte Änderungen. Möchten Sie diese verwerfen und den Editor verlassen?",

		"validation.required":         "Das Eingabefeld darf nicht leer sein.",
		"validation.invalidEmail":     "Die Email-Adresse ist ungültig.",
		"validation.passwordMismatch": "Beide Kennwörter müssen exakt gleich sein.",
		"validation.invalidOption":    "Die gewählte Option wird nicht unterstützt.",

		"authentication.label.email":          "Email-Adresse",
		"authentication.label.firstName":      "Vorname",
		"authentication.label.lastName":       "Nachname",
		"authentication.label.password":       "Kennwort",
		"authentication.label.passwordRepeat": "Kennwort wiederholen",

		"authentication.error.invalidEmail":      "Die Email-Adresse ist ungültig.",
		"authentication.error.emailAlreadyInUse": "Es existiert bereits ein Konto mit dieser Email-Adresse.",
		"authentication.error.weakPassword":      "Das Kennwort muss mindestens 6 Zeichen lang sein.",
		"authentication.error.invalidCredential": "Die Email-Adresse oder das Kennwort ist falsch.",
		"authentication.error.tooManyRequests":   "Zu viele fehlgeschlagene Versuche. Bitte versuchen Sie es später erneut.",
		"authentication.error.accountLocked":     "Das Konto ist gesperrt. Es muss erst von einem Administrator freigeschaltet werden.",
		"authentication.error.invalidActionCode": "Der Link zum Zurücksetzen ist ungültig oder abgelaufen.",
		"authentication.error.sessionExpired":    "Ihre Sitzung ist abgelaufen. Bitte melden Sie sich erneut an.",

		"authentication.login.message":           "Bitte geben Sie Ihre Anmeldeinformationen ein. Achten Sie beim Kennwort auf die Groß- und Kleinschreibung. Sollten Sie noch kein Konto besitzen, können Sie ein neues registrieren. Dieses muss jedoch erst von einem Administrator freigeschaltet werden, bevor Sie sich anmelden können.",
		"authentication.register.dialog.title":   "Konto erfolgreich erstellt",
		"authentication.register.dialog.message": "Ihr Konto wurde erfolgreich erstellt. Bitte kontaktieren Sie einen Administrator, damit dieser Ihr neues Konto freischalten kann. Erst danach ist eine Anmeldung an der Applikation möglich.",
		"authentication.reset.dialog.title":      "Kennwort zurücksetzen angefordert",
		"authentication.reset.dialog.message":    "Falls ein Konto für {email} existiert, wurde ein Link zum Festlegen eines neuen Kennworts versendet.",
		"authentication.reset.done":              "Ihr Kennwort wurde geändert. Bitte melden Sie sich mit dem neuen Kennwort an.",

		"error.unauthorized": "Bitte melden Sie sich an, um fortzufahren.",
		"error.forbidden":    "Sie sind für diese Aktion nicht berechtigt.",
		"error.notFound":     "Das angeforderte Objekt ({scope}) wurde nicht gefunden.",
		"error.invalidBody":  "Die Anfrage konnte nicht gelesen werden.",
		"error.invalidInput": "Die Eingabe ist ungültig: {detail}",

		"enum.memberRole.owner":      "Eigentümer",
		"enum.memberRole.manager":    "Projektleiter",
		"enum.memberRole.maintainer": "Betreuer",
		"enum.memberRole.deployer":   "Bereitsteller",
		"enum.memberRole.developer":  "Entwickler",
		"enum.memberRole.visitor":    "Besucher",

		"enum.attributeType.string":  "Zeichenkette",
		"enum.attributeType.number":  "Zahl",
		"enum.attributeType.boolean": "Wahrheitswert",

		"enum.editorMode.create": "Erstellen",
		"enum.editorMode.edit":   "Bearbeiten",
		"enum.editorMode.view":   "Anzeigen",
	},
}
