package domain

type EventType string

const (
	EventTypeDeathNotification EventType = "DEATH_NOTIFICATION"
	EventTypeEnteredPrison     EventType = "ENTERED_PRISON"
	EventTypeTestEvent         EventType = "TEST_EVENT"
)

type EnrichmentField string

const (
	FieldFirstName      EnrichmentField = "firstName"
	FieldMiddleNames    EnrichmentField = "middleNames"
	FieldLastName       EnrichmentField = "lastName"
	FieldSex            EnrichmentField = "sex"
	FieldDateOfBirth    EnrichmentField = "dateOfBirth"
	FieldDateOfDeath    EnrichmentField = "dateOfDeath"
	FieldAddress        EnrichmentField = "address"
	FieldPrisonerNumber EnrichmentField = "prisonerNumber"
)

var eventTypeFields = map[EventType][]EnrichmentField{
	EventTypeDeathNotification: {
		FieldFirstName, FieldLastName, FieldSex, FieldDateOfBirth, FieldDateOfDeath, FieldAddress,
	},
	EventTypeEnteredPrison: {
		FieldPrisonerNumber, FieldFirstName, FieldMiddleNames, FieldLastName, FieldSex, FieldDateOfBirth,
	},
	EventTypeTestEvent: {},
}

func (t EventType) Valid() bool {
	_, ok := eventTypeFields[t]
	return ok
}

// EnrichmentFields returns the set of fields a subscriber may request for t.
func (t EventType) EnrichmentFields() map[EnrichmentField]struct{} {
	fields := eventTypeFields[t]
	set := make(map[EnrichmentField]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Payload is the field-projected enrichment result returned to subscribers.
type Payload map[EnrichmentField]any
