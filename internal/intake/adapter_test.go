package intake

import (
	"errors"
	"testing"
)

func TestPortalAdapter_Success(t *testing.T) {
	raw := []byte(`{
		"patient": {"first_name": "Jane", "last_name": "Doe", "mrn": "123456", "dob": "1980-05-15"},
		"provider": {"name": "Dr. Alice Wong", "npi": "1234567890"},
		"medication_name": "Humira",
		"primary_diagnosis": "M05.79",
		"additional_diagnoses": ["M06.9"],
		"medication_history": ["Methotrexate"],
		"patient_records": "Stable on current regimen",
		"confirm": true
	}`)

	order, err := Process(PortalAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Patient.FirstName != "Jane" || order.Patient.MRN != "123456" {
		t.Errorf("Unexpected patient mapping: %+v", order.Patient)
	}
	if order.Provider.NPI != "1234567890" {
		t.Errorf("Expected NPI 1234567890, got %q", order.Provider.NPI)
	}
	if order.MedicationName != "Humira" {
		t.Errorf("Expected medication Humira, got %q", order.MedicationName)
	}
	if !order.Confirm {
		t.Error("Expected confirm flag to carry through")
	}
}

func TestPortalAdapter_DefaultsOptionalLists(t *testing.T) {
	raw := []byte(`{
		"patient": {"first_name": "Jane", "last_name": "Doe", "mrn": "123456"},
		"provider": {"name": "Dr. Wong", "npi": "1234567890"},
		"medication_name": "Humira"
	}`)

	order, err := Process(PortalAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.AdditionalDiagnoses == nil || len(order.AdditionalDiagnoses) != 0 {
		t.Errorf("Expected empty additional diagnoses, got %v", order.AdditionalDiagnoses)
	}
	if order.MedicationHistory == nil || len(order.MedicationHistory) != 0 {
		t.Errorf("Expected empty medication history, got %v", order.MedicationHistory)
	}
}

func TestPortalAdapter_RejectsNonObject(t *testing.T) {
	var adapterErr *AdapterError

	_, err := Process(PortalAdapter{}, []byte(`[1, 2, 3]`))
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for JSON array, got: %v", err)
	}

	_, err = Process(PortalAdapter{}, []byte(`not json`))
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for malformed JSON, got: %v", err)
	}
}

func TestProcess_RejectsInvalidUTF8(t *testing.T) {
	var adapterErr *AdapterError

	_, err := Process(PortalAdapter{}, []byte{0xff, 0xfe, '{'})
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for invalid UTF-8, got: %v", err)
	}
}

func TestProcess_RejectsIncompleteOrder(t *testing.T) {
	// Parses fine but the transform leaves the medication empty.
	raw := []byte(`{
		"patient": {"first_name": "Jane", "last_name": "Doe", "mrn": "123456"},
		"provider": {"name": "Dr. Wong", "npi": "1234567890"}
	}`)

	var adapterErr *AdapterError
	_, err := Process(PortalAdapter{}, raw)
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for missing medication, got: %v", err)
	}
}

func TestClinicAdapter_Success(t *testing.T) {
	raw := []byte(`{
		"pt_fname": "Bob", "pt_lname": "Smith", "pt_id_num": "654321",
		"birth_date": "1975-01-20",
		"doc_name": "Dr. Carol Diaz", "doc_npi": "9988776655",
		"drug": "Enbrel", "main_icd10": "L40.0",
		"past_meds": "Methotrexate, Prednisone",
		"is_confirmed": false
	}`)

	order, err := Process(ClinicAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Patient.LastName != "Smith" || order.Patient.DOB != "1975-01-20" {
		t.Errorf("Unexpected patient mapping: %+v", order.Patient)
	}
	if len(order.MedicationHistory) != 2 || order.MedicationHistory[1] != "Prednisone" {
		t.Errorf("Expected split and trimmed medication history, got %v", order.MedicationHistory)
	}
	if order.Confirm {
		t.Error("Expected confirm false")
	}
}

func TestClinicAdapter_EmptyPastMeds(t *testing.T) {
	raw := []byte(`{
		"pt_fname": "Bob", "pt_lname": "Smith", "pt_id_num": "654321",
		"doc_name": "Dr. Diaz", "doc_npi": "9988776655",
		"drug": "Enbrel"
	}`)

	order, err := Process(ClinicAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(order.MedicationHistory) != 0 {
		t.Errorf("Expected empty medication history, got %v", order.MedicationHistory)
	}
}

func TestPharmaLinkAdapter_Success(t *testing.T) {
	raw := []byte(`<Referral>
		<Patient>
			<GivenName>Maria</GivenName>
			<SurName>Garcia</SurName>
			<MedRecordNum>112233</MedRecordNum>
			<DateOfBirth>03-25-1990</DateOfBirth>
		</Patient>
		<Prescriber>
			<FullName>Dr. Sam Lee</FullName>
			<NationalProviderId>5544332211</NationalProviderId>
		</Prescriber>
		<ClinicalInfo>
			<DrugName>Remicade</DrugName>
			<PrimaryDiagCode>K50.90</PrimaryDiagCode>
			<OtherDiagCodes>
				<Code>K51.0</Code>
				<Code>D64.9</Code>
			</OtherDiagCodes>
		</ClinicalInfo>
	</Referral>`)

	order, err := Process(PharmaLinkAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Patient.DOB != "1990-03-25" {
		t.Errorf("Expected DOB reformatted to 1990-03-25, got %q", order.Patient.DOB)
	}
	if len(order.AdditionalDiagnoses) != 2 || order.AdditionalDiagnoses[0] != "K51.0" {
		t.Errorf("Unexpected additional diagnoses: %v", order.AdditionalDiagnoses)
	}
	if order.Confirm {
		t.Error("PharmaLink feed has no confirm flag, expected false")
	}
}

func TestPharmaLinkAdapter_BadDateDropsDOB(t *testing.T) {
	raw := []byte(`<Referral>
		<Patient>
			<GivenName>Maria</GivenName>
			<SurName>Garcia</SurName>
			<MedRecordNum>112233</MedRecordNum>
			<DateOfBirth>1990-3-25</DateOfBirth>
		</Patient>
		<Prescriber>
			<FullName>Dr. Lee</FullName>
			<NationalProviderId>5544332211</NationalProviderId>
		</Prescriber>
		<ClinicalInfo>
			<DrugName>Remicade</DrugName>
		</ClinicalInfo>
	</Referral>`)

	order, err := Process(PharmaLinkAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Patient.DOB != "" {
		t.Errorf("Expected malformed date dropped, got %q", order.Patient.DOB)
	}
}

func TestPharmaLinkAdapter_RejectsMalformedXML(t *testing.T) {
	var adapterErr *AdapterError
	_, err := Process(PharmaLinkAdapter{}, []byte(`<Referral><Patient>`))
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for malformed XML, got: %v", err)
	}
}

func TestNordicAdapter_Success(t *testing.T) {
	raw := []byte("PATIENT|Sven|Svensson|889900|1985/12/31\n" +
		"DOCTOR|Dr. Erik|7788990011\n" +
		"ORDER|Ibuprofen|M10.9|M12.0;M15.3|CONFIRMED\n")

	order, err := Process(NordicAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if order.Patient.DOB != "1985-12-31" {
		t.Errorf("Expected slash date converted, got %q", order.Patient.DOB)
	}
	if len(order.AdditionalDiagnoses) != 2 || order.AdditionalDiagnoses[1] != "M15.3" {
		t.Errorf("Unexpected additional diagnoses: %v", order.AdditionalDiagnoses)
	}
	if !order.Confirm {
		t.Error("Expected CONFIRMED token to set confirm")
	}
}

func TestNordicAdapter_UnconfirmedAndCaseInsensitive(t *testing.T) {
	raw := []byte("PATIENT|Sven|Svensson|889900|1985/12/31\n" +
		"DOCTOR|Dr. Erik|7788990011\n" +
		"ORDER|Ibuprofen|M10.9||confirmed\n")

	order, err := Process(NordicAdapter{}, raw)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !order.Confirm {
		t.Error("Expected lowercase confirmed token accepted")
	}
	if len(order.AdditionalDiagnoses) != 0 {
		t.Errorf("Expected no additional diagnoses, got %v", order.AdditionalDiagnoses)
	}
}

func TestNordicAdapter_EmptyPayload(t *testing.T) {
	var adapterErr *AdapterError
	_, err := Process(NordicAdapter{}, []byte("  \n \n"))
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for empty payload, got: %v", err)
	}
}

func TestNordicAdapter_MissingRecordFailsValidation(t *testing.T) {
	raw := []byte("PATIENT|Sven|Svensson|889900|1985/12/31\n" +
		"ORDER|Ibuprofen|M10.9||NO\n")

	var adapterErr *AdapterError
	_, err := Process(NordicAdapter{}, raw)
	if !errors.As(err, &adapterErr) {
		t.Fatalf("Expected AdapterError for missing DOCTOR record, got: %v", err)
	}
}
