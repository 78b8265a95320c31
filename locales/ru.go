package locales

// User-facing messages of the bot (in Russian).
const (
	// Navigation
	BtnBack         = "Назад"
	BtnToStart      = "В начало"
	MsgSendingFiles = "Отправляем файлы, подождите немного..."

	// Feedback form buttons
	BtnCancel = "Отмена"
	BtnSubmit = "Отправить"

	// Feedback field prompts
	PromptCompany       = "Введите название компании:"
	PromptINN           = "Введите ИНН компании:"
	PromptName          = "Введите ФИО:"
	PromptEmail         = "Введите контактный email:"
	PromptContactNumber = "Введите контактный номер телефона:"
	PromptText          = "Введите ваш запрос:"
	PromptFiles         = "Можете прикрепить файлы (по одному, весом не больше 3Мб каждый и 15Мб суммарно) или отправить обращение."

	// Feedback flow replies
	MsgOnlyFilesAtStep  = "На этом этапе можно загрузить только файлы, текст записан не будет."
	MsgFilesComeLater   = "Файлы можно будет прикрепить в конце обращения, пока что можно ввести только текст."
	MsgNoFileStep       = "Файлы можно прикрепить только в разделе \"Обратная связь\""
	MsgFormClosed       = "Дополнить обращение уже нельзя, можно только отправить новое."
	MsgExtensionDenied  = "Файл с таким расширением не допустим"
	MsgFileTooLargeFmt  = "Файл под названием %s не может быть загружен, т.к. его размер превышает %dМб."
	MsgTotalTooLargeFmt = "Все файлы в обращении не могут превышать %dМб."
	MsgFileAttachedFmt  = "Ваш файл %s добавлен к обращению."
	MsgSubmitting       = "Подождите немного, отправляем ваше обращение..."
	MsgSubmittedFmt     = "Спасибо, ваш запрос принят!\nНомер обращения: %s"
	MsgCancelled        = "Отправка обращения отменена"
)

// Notification email template.
const (
	MailSubjectFmt = "Запрос из Telegram-бота: %s"

	MailBodyFmt = `
Пришло обращение из телеграм бота департамента тендеров и закупок.

Номер обращения: %s.
Дата и время обращения: %s

Название компании: %s
ИНН: %s
ФИО: %s
Номер телефона: %s
Электронная почта: %s

Текст сообщения:
%s
`

	MailFilesHeader = "\nВложенные файлы:\n- "
)
