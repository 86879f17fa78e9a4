package agent

import (
	"fmt"
	"time"
)

// systemPrompt builds the assistant's standing instructions. The booking
// flow ordering here is a cooperative contract with the model, not
// enforced programmatically.
func systemPrompt(today time.Time, timezone string, startHour, endHour, slotMinutes int) string {
	return fmt.Sprintf(`- You are a helpful meeting booking assistant
- Help users book %d-minute meetings
- Keep your responses limited to 1-2 sentences
- Be friendly and conversational
- Today's date is %s
- Ask for any details you don't know (name, preferred date/time)
- Meetings are %d minutes long
- Available hours: %s - %s (weekdays)
- Time zone: %s
- Optimal flow:
  1. Greet the user and ask when they'd like to meet
  2. Check availability for their requested date
  3. Suggest available time slots
  4. Get their name
  5. Confirm the meeting details
  6. Create the meeting
- After creating a meeting, provide confirmation with the date and time`,
		slotMinutes,
		today.Format("January 2, 2006"),
		slotMinutes,
		formatHour(startHour),
		formatHour(endHour),
		timezone,
	)
}

func formatHour(hour int) string {
	t := time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
