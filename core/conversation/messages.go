package conversation

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/AvaProtocol/ercx-bot/model"
)

const (
	StartCommand = "/start"
	MainMenu     = "Main Menu"

	ButtonYes = "Yes"
	ButtonNo  = "No"

	chooseStandardText = "Please choose token standard to test:"
	chooseNetworkText  = "Please choose a network:"
	reportProgressText = "Report generating..."

	serviceFailureText = "Sorry, we could not reach the report service. Please try again in a moment."
	pollBusyText       = "A report is already being generated for you. Please wait until it is ready."
)

func replyKeyboard(labels ...string) *Keyboard {
	return &Keyboard{
		Rows: [][]Button{lo.Map(labels, func(label string, _ int) Button {
			return Button{Text: label}
		})},
	}
}

func standardKeyboard() *Keyboard {
	return replyKeyboard(lo.Map(model.Standards, func(s model.Standard, _ int) string {
		return s.String()
	})...)
}

func networkKeyboard() *Keyboard {
	labels := lo.Map(model.Networks, func(n model.Network, _ int) string {
		return n.String()
	})
	return replyKeyboard(append(labels, MainMenu)...)
}

func mainMenuKeyboard() *Keyboard {
	return replyKeyboard(MainMenu)
}

func confirmKeyboard() *Keyboard {
	return &Keyboard{
		Inline: true,
		Rows: [][]Button{{
			{Text: ButtonYes, Data: ButtonYes},
			{Text: ButtonNo, Data: ButtonNo},
		}},
	}
}

func addressPromptText(s model.Session) string {
	return fmt.Sprintf("Please send token address %s standard for %s network:", s.Standard, s.Network)
}

func anotherAddressText(q model.ReportQuery) string {
	return fmt.Sprintf("Please enter another token address to test %s standard on %s network.\n\n"+
		"Or press %s to go back to main menu.", q.Standard, q.Network, MainMenu)
}

func invalidAddressText(text string) string {
	return fmt.Sprintf("%q is not a valid token address. Please send a 0x prefixed address with 40 hex characters.", text)
}

func notFoundText(q model.ReportQuery) string {
	return fmt.Sprintf("Token address %s %s standard for %s network is not found in our database.", q.Address, q.Standard, q.Network)
}

func generatePromptText(q model.ReportQuery) string {
	return notFoundText(q) + "\n\nWould you like to generate a report for this token address?"
}

func generationAcceptedText(address string) string {
	return fmt.Sprintf("You selected generate report for this address:\n\n%s\n\n"+
		"Please wait while we are generating the report.", address)
}

func stillGeneratingText(address string) string {
	return fmt.Sprintf("The report for %s is still being generated. Please wait.", address)
}

func progressText(elapsed time.Duration) string {
	return fmt.Sprintf("%s\n%dsec", reportProgressText, int(elapsed.Seconds()))
}

func timeoutText(address string) string {
	return fmt.Sprintf("Report generation for %s is taking longer than expected.\n\n"+
		"Please send the address again later to check the result.", address)
}

func reportHeaderText(q model.ReportQuery) string {
	return fmt.Sprintf("Your %s token address is %s deployed on %s network.\n\n", q.Standard, q.Address, q.Network)
}
