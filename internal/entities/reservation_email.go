package entities

type ReservationEmailData struct {
	GuestName          string
	ReservationCode    string
	LockerCode         string
	ItemSummary        string
	StartTimeFormatted string
	EndTimeFormatted   string
	CurrentYear        int
	Language           string
	Status             string
}
