package certificates

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// CertificateData is the input of one generation call. It is treated as
// immutable for the duration of the call.
type CertificateData struct {
	CertificateNumber   string    `json:"certificate_number"`
	VerificationCode    string    `json:"verification_code"`
	CandidateName       string    `json:"candidate_name"`
	CandidateFiscalCode string    `json:"candidate_fiscal_code,omitempty"`
	Language            string    `json:"language"`
	Level               string    `json:"level"`
	ListeningScore      float64   `json:"listening_score"`
	ReadingScore        float64   `json:"reading_score"`
	WritingScore        float64   `json:"writing_score"`
	SpeakingScore       float64   `json:"speaking_score"`
	TotalScore          float64   `json:"total_score"`
	ExamDate            time.Time `json:"exam_date"`
	IssueDate           time.Time `json:"issue_date"`
	ExpiryDate          time.Time `json:"expiry_date"`
	ExamCenterName      string    `json:"exam_center_name"`
}

// CertificateRecord is the persisted certificate owned by the issuance
// workflow. Generation only ever writes PDFURL and PDFDigest.
type CertificateRecord struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	CertificateNumber   string     `json:"certificate_number" db:"certificate_number"`
	VerificationCode    string     `json:"verification_code" db:"verification_code"`
	CandidateName       string     `json:"candidate_name" db:"candidate_name"`
	CandidateFiscalCode *string    `json:"candidate_fiscal_code,omitempty" db:"candidate_fiscal_code"`
	Language            string     `json:"language" db:"language"`
	Level               string     `json:"level" db:"level"`
	ListeningScore      float64    `json:"listening_score" db:"listening_score"`
	ReadingScore        float64    `json:"reading_score" db:"reading_score"`
	WritingScore        float64    `json:"writing_score" db:"writing_score"`
	SpeakingScore       float64    `json:"speaking_score" db:"speaking_score"`
	TotalScore          float64    `json:"total_score" db:"total_score"`
	ExamDate            time.Time  `json:"exam_date" db:"exam_date"`
	IssueDate           time.Time  `json:"issue_date" db:"issue_date"`
	ExpiryDate          time.Time  `json:"expiry_date" db:"expiry_date"`
	ExamCenterName      string     `json:"exam_center_name" db:"exam_center_name"`
	Status              Status     `json:"status" db:"status"`
	RevokedAt           *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	RevocationReason    *string    `json:"revocation_reason,omitempty" db:"revocation_reason"`
	PDFURL              *string    `json:"pdf_url,omitempty" db:"pdf_url"`
	PDFDigest           *string    `json:"pdf_digest,omitempty" db:"pdf_digest"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// Data returns the generation input held by the record
func (r *CertificateRecord) Data() CertificateData {
	data := CertificateData{
		CertificateNumber: r.CertificateNumber,
		VerificationCode:  r.VerificationCode,
		CandidateName:     r.CandidateName,
		Language:          r.Language,
		Level:             r.Level,
		ListeningScore:    r.ListeningScore,
		ReadingScore:      r.ReadingScore,
		WritingScore:      r.WritingScore,
		SpeakingScore:     r.SpeakingScore,
		TotalScore:        r.TotalScore,
		ExamDate:          r.ExamDate,
		IssueDate:         r.IssueDate,
		ExpiryDate:        r.ExpiryDate,
		ExamCenterName:    r.ExamCenterName,
	}
	if r.CandidateFiscalCode != nil {
		data.CandidateFiscalCode = *r.CandidateFiscalCode
	}
	return data
}

func (r *CertificateRecord) IsRevoked() bool {
	return r.Status == StatusRevoked
}

// Artifact is a rendered and published certificate document
type Artifact struct {
	URL    string `json:"pdf_url"`
	Key    string `json:"key"`
	Digest string `json:"pdf_digest"`
	Size   int    `json:"size"`
}

// VerificationResult is returned to anyone presenting a verification code
type VerificationResult struct {
	Valid             bool       `json:"valid"`
	Status            Status     `json:"status"`
	Expired           bool       `json:"expired"`
	Message           string     `json:"message"`
	CertificateNumber string     `json:"certificate_number"`
	CandidateName     string     `json:"candidate_name"`
	Language          string     `json:"language"`
	Level             string     `json:"level"`
	TotalScore        float64    `json:"total_score"`
	Grade             GradeLabel `json:"grade"`
	ExamCenterName    string     `json:"exam_center_name"`
	IssueDate         time.Time  `json:"issue_date"`
	ExpiryDate        time.Time  `json:"expiry_date"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	PDFURL            string     `json:"pdf_url,omitempty"`
}
