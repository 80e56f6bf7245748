package ledger

// SeedDemo loads the demo directory used in development: students 101-104
// with fingerprints fp101-fp104.
func (l *Ledger) SeedDemo() {
	demo := map[string]Student{
		"101": {Name: "Rahul Kumar", Class: "10A", RollNo: "1", FingerprintID: "fp101"},
		"102": {Name: "Priya Singh", Class: "10A", RollNo: "2", FingerprintID: "fp102"},
		"103": {Name: "Amit Sharma", Class: "10B", RollNo: "1", FingerprintID: "fp103"},
		"104": {Name: "Sneha Patel", Class: "10B", RollNo: "2", FingerprintID: "fp104"},
	}
	for id, st := range demo {
		_ = l.AddOrUpdateStudent(id, st)
	}
}
