package domain

// Command represents a recognized bot command
type Command string

const (
	CommandNone     Command = ""
	CommandStart    Command = "start"
	CommandHelp     Command = "help"
	CommandMenu     Command = "menu"
	CommandToday    Command = "today"
	CommandTomorrow Command = "tomorrow"
	CommandWeek     Command = "week"
)

// IsExempt checks whether the command bypasses cooldown checks.
// Exempt commands still count against the per-user and global ceilings.
func (c Command) IsExempt() bool {
	return c == CommandHelp
}
