package testfixtures

// StoreRow builds the raw Airtable columns of a reservation.
func StoreRow(name, date, arrival string, partySize int, isHere int) map[string]any {
	return map[string]any{
		"nom_client":       name,
		"date_reservation": date,
		"heure_arrivee":    arrival,
		"nombre_personnes": partySize,
		"is_here":          isHere,
	}
}

// WithPhone adds a phone number to a raw row.
func WithPhone(row map[string]any, phone string) map[string]any {
	row["numero_telephone"] = phone
	return row
}

// WithNotes adds the free-text column to a raw row.
func WithNotes(row map[string]any, notes string) map[string]any {
	row["champ_complementaire"] = notes
	return row
}
