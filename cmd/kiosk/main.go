// Command kiosk is a terminal self-service client for a lockerbox server:
// create a reservation, look one up by code, record handover and return.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lockerbox/internal/selfservice"
)

type terminalNotifier struct {
	in *bufio.Scanner
}

func (n *terminalNotifier) Notify(level selfservice.Level, message string) {
	fmt.Printf("[%s] %s\n", level, message)
}

func (n *terminalNotifier) Confirm(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	if !n.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(n.in.Text()))
	return answer == "y" || answer == "yes"
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "lockerbox server URL")
	tenantID := flag.String("tenant", "", "tenant identifier of this location")
	flag.Parse()

	in := bufio.NewScanner(os.Stdin)
	notifier := &terminalNotifier{in: in}
	client := selfservice.NewClient(*serverURL)
	flow := selfservice.NewFlow(client, notifier)

	for {
		fmt.Println("\n1) New reservation  2) Lookup by code  3) Record handover  4) Confirm return  q) Quit")
		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		switch strings.TrimSpace(in.Text()) {
		case "1":
			createReservation(flow, in, notifier, *tenantID)
		case "2":
			flow.SetLookupCode(prompt(in, "Reservation code"))
			lookupAndShow(flow)
		case "3":
			recordHandover(flow, in)
		case "4":
			confirmReturn(flow, in)
		case "q":
			return
		}
	}
}

func createReservation(flow *selfservice.Flow, in *bufio.Scanner, notifier *terminalNotifier, tenantID string) {
	if tenantID == "" {
		tenantID = prompt(in, "Tenant ID")
	}
	lockerCode := prompt(in, "Locker code")
	start := promptTime(in, "Drop-off (2006-01-02 15:04)")
	end := promptTime(in, "Pick-up (2006-01-02 15:04)")
	guestName := prompt(in, "Guest name")
	guestPhone := prompt(in, "Guest phone")
	guestEmail := prompt(in, "Guest email")
	itemCount := promptInt(in, "Item count")

	flow.EditDraft(func(d *selfservice.Draft) {
		d.TenantID = tenantID
		d.LockerCode = lockerCode
		d.Start = start
		d.End = end
		d.GuestName = guestName
		d.GuestPhone = guestPhone
		d.GuestEmail = guestEmail
		d.ItemCount = itemCount
	})

	// Wait out the debounce so the estimate is in before submitting.
	time.Sleep(time.Second)
	if est := flow.Estimator().Estimate(); est != nil {
		fmt.Printf("Estimated total: %s (%s tier)\n", est.TotalFormatted, est.PricingTier)
	}

	gate := flow.Gate()
	for _, contract := range []selfservice.Contract{selfservice.ContractPrivacy, selfservice.ContractTerms} {
		gate.Open(contract)
		if notifier.Confirm(fmt.Sprintf("Have you read the %s contract to the end?", contract)) {
			gate.MarkRead(contract)
			if err := gate.Accept(contract); err != nil {
				fmt.Println(err)
			}
		}
	}

	result, err := flow.Submit(context.Background())
	if err != nil {
		return
	}
	fmt.Printf("Confirmation code: %s (locker %s)\n", result.Code, result.LockerCode)
}

func lookupAndShow(flow *selfservice.Flow) {
	result, err := flow.Lookup(context.Background())
	if err != nil || !result.Valid {
		return
	}
	r := result.Reservation
	fmt.Printf("Reservation %s: status=%s locker=%s items=%d\n", r.Code, r.Status, r.LockerCode, r.ItemCount)
	if r.HandoverAt != nil {
		fmt.Printf("  handed over at %s by %s\n", r.HandoverAt.Format(time.RFC3339), deref(r.HandoverBy))
	}
	if r.ReturnedAt != nil {
		fmt.Printf("  returned at %s by %s\n", r.ReturnedAt.Format(time.RFC3339), deref(r.ReturnedBy))
	}
	actions := flow.Actions()
	fmt.Printf("  actions: handover=%v return=%v\n", actions.CanHandover, actions.CanReturn)
}

func recordHandover(flow *selfservice.Flow, in *bufio.Scanner) {
	rec := selfservice.OperationRecord{
		Notes:       prompt(in, "Notes (optional)"),
		EvidenceURL: prompt(in, "Evidence URL (optional)"),
	}
	if _, err := flow.RecordHandover(context.Background(), rec); err == nil {
		lookupSummary(flow)
	}
}

func confirmReturn(flow *selfservice.Flow, in *bufio.Scanner) {
	rec := selfservice.OperationRecord{
		Notes:       prompt(in, "Notes (optional)"),
		EvidenceURL: prompt(in, "Evidence URL (optional)"),
	}
	if _, err := flow.ConfirmReturn(context.Background(), rec); err == nil {
		lookupSummary(flow)
	}
}

func lookupSummary(flow *selfservice.Flow) {
	if cur := flow.Current(); cur != nil && cur.Valid {
		fmt.Printf("Reservation %s is now %s\n", cur.Reservation.Code, cur.Reservation.Status)
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func promptTime(in *bufio.Scanner, label string) time.Time {
	for {
		raw := prompt(in, label)
		t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local)
		if err == nil {
			return t
		}
		fmt.Println("Could not parse time, try again")
	}
}

func promptInt(in *bufio.Scanner, label string) int {
	for {
		raw := prompt(in, label)
		n, err := strconv.Atoi(raw)
		if err == nil {
			return n
		}
		fmt.Println("Could not parse number, try again")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
