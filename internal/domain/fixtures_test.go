package domain

// Test fixtures
func createTestRow() ListRow {
	return ListRow{
		ID:               "ROW-001",
		ItemID:           "ITEM-001",
		ItemCode:         "8001234567890",
		ItemDescription:  "Viti M6 inox",
		LocationID:       "LOC-A1205",
		LocationCode:     "A-12-05",
		RequiredQuantity: 10,
	}
}

func createTestRows(n int) []ListRow {
	rows := make([]ListRow, 0, n)
	for i := 0; i < n; i++ {
		row := createTestRow()
		row.ID = "ROW-00" + string(rune('1'+i))
		rows = append(rows, row)
	}
	return rows
}

// walkToQuantity applies the location and item inputs
func walkToQuantity(s *Sequencer) {
	row := s.Row()
	_ = s.Apply(Input{Kind: InputSubmit, Value: row.LocationCode})
	_ = s.Apply(Input{Kind: InputConfirm})
}
