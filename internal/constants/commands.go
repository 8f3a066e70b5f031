package constants

// CommandStart greets the user and shows the help text.
const CommandStart = "start"

// CommandHelp shows supported time formats and commands.
const CommandHelp = "help"

// CommandList shows the owner's queue.
const CommandList = "list"

// CommandStatus shows the bound channel and queue size.
const CommandStatus = "status"

// CommandSetChannel starts the channel designation flow.
const CommandSetChannel = "setchannel"

// CommandCancel removes a queued post by its number in /list.
const CommandCancel = "cancel"

// CommandNow publishes the held post immediately.
const CommandNow = "now"

// Inline button actions. Callback data is "<action>:<task id>".
const (
	ButtonPublish = "pub"
	ButtonCancel  = "can"
	ButtonRetime  = "chg"
)

// CallbackSeparator separates action and task ID in callback data.
const CallbackSeparator = ":"

// BotCommand describes a command registered in the Telegram menu.
type BotCommand struct {
	Name        string
	Description string
}

// BotCommands is the command menu in display order.
var BotCommands = []BotCommand{
	{Name: CommandList, Description: "Очередь постов"},
	{Name: CommandStatus, Description: "Статус и текущий канал"},
	{Name: CommandSetChannel, Description: "Сменить канал публикации"},
	{Name: CommandCancel, Description: "Отменить пост по номеру"},
	{Name: CommandNow, Description: "Опубликовать текущий пост сразу"},
	{Name: CommandHelp, Description: "Справка"},
}
