// Package emr supplies the patient-record snapshot used to ground the
// intake conversation and the doctor-facing report. Records are treated
// everywhere as untyped trees; no schema is assumed.
package emr

// Demo returns the bundled demo patient record. Supplied per-request
// and never mutated during a session.
func Demo() map[string]interface{} {
	return map[string]interface{}{
		"patient_id": "98765",
		"demographics": map[string]interface{}{
			"name":   "John Smith",
			"dob":    "1985-04-12",
			"gender": "Male",
		},
		"conditions": []interface{}{
			map[string]interface{}{"name": "Chronic Migraine", "diagnosed": "2017-05-10", "status": "chronic"},
			map[string]interface{}{"name": "Hypertension", "diagnosed": "2015-08-22", "status": "chronic"},
			map[string]interface{}{"name": "Gastroesophageal Reflux Disease (GERD)", "diagnosed": "2019-11-15", "status": "managed"},
			map[string]interface{}{"name": "Seasonal Allergies", "diagnosed": "2010-04-01", "status": "episodic"},
			map[string]interface{}{"name": "Eye Strain", "diagnosed": "2021-03-05", "status": "episodic"},
		},
		"medications": []interface{}{
			map[string]interface{}{"name": "Ibuprofen", "dose": "200mg", "frequency": "as needed", "active": true, "indication": "headache pain relief"},
			map[string]interface{}{"name": "Lisinopril", "dose": "10mg", "frequency": "daily", "active": true, "indication": "hypertension"},
			map[string]interface{}{"name": "Omeprazole", "dose": "20mg", "frequency": "daily", "active": true, "indication": "GERD"},
			map[string]interface{}{"name": "Cetirizine", "dose": "10mg", "frequency": "as needed", "active": true, "indication": "seasonal allergies"},
		},
		"labs": []interface{}{
			map[string]interface{}{"test": "Blood Pressure", "value": "142/88", "unit": "mmHg", "date": "2025-09-10", "trend": "slightly elevated"},
			map[string]interface{}{"test": "CBC", "value": "Normal", "date": "2025-09-10"},
		},
		"allergies": []interface{}{
			map[string]interface{}{"substance": "Penicillin", "reaction": "rash", "severity": "moderate"},
		},
		"lifestyle": map[string]interface{}{
			"occupation": "Software Engineer",
			"notes":      "Headaches worsened by skipping meals and long screen time",
		},
	}
}
