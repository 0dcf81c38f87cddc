package main

import (
	"context"
	"time"

	"github.com/kmutombo/veridoc/core/catalog"
)

const (
	mb = 1 << 20

	pdfOnly = "pdf"
)

type seedRequirement struct {
	docType  catalog.DocumentType
	title    string
	required bool
	maxSize  int64
	types    []string
}

var defaultRequirements = []seedRequirement{
	{catalog.DocumentTypePassport, "Valid Passport", true, 5 * mb, []string{"pdf", "jpg", "jpeg", "png"}},
	{catalog.DocumentTypeAcademicTranscript, "Academic Transcripts", true, 10 * mb, []string{pdfOnly}},
	{catalog.DocumentTypeDiplomaCertificate, "Diploma or Degree Certificate", true, 10 * mb, []string{pdfOnly}},
	{catalog.DocumentTypeEnglishTest, "English Proficiency Test Results", true, 5 * mb, []string{pdfOnly}},
	{catalog.DocumentTypeFinancialStatement, "Proof of Funds", true, 10 * mb, []string{pdfOnly}},
	{catalog.DocumentTypeStatementOfPurpose, "Statement of Purpose", false, 5 * mb, []string{pdfOnly, "doc", "docx"}},
	{catalog.DocumentTypeRecommendationLetter, "Recommendation Letter", false, 5 * mb, []string{pdfOnly}},
	{catalog.DocumentTypePhoto, "Passport Photo", true, 2 * mb, []string{"jpg", "jpeg", "png"}},
}

var defaultCountries = map[string]string{
	"CA": "Canada",
	"GB": "United Kingdom",
	"AU": "Australia",
	"US": "United States",
}

// seedCatalog loads the default destination countries and their standard
// requirement sets. Existing countries (matched by code) are left untouched.
func (cli *commandLine) seedCatalog() error {
	ctx := context.Background()
	now := time.Now().UTC()

	for code, name := range defaultCountries {
		if err := cli.catRepo.CheckCountryCodeUniqueness(ctx, code, nil); err != nil {
			if err == catalog.ErrCountryExists {
				logger.Printf("country %s already exists, skipping", code)
				continue
			}
			return err
		}

		cty := catalog.Country{Code: code, Name: name, CreatedAt: now, UpdatedAt: now}
		cty.SetActive(true)
		cty, err := cli.catRepo.CreateCountry(ctx, cty)
		if err != nil {
			return err
		}

		for i, sr := range defaultRequirements {
			req := catalog.Requirement{
				CountryID:    cty.ID,
				DocumentType: sr.docType,
				Title:        sr.title,
				Required:     sr.required,
				MaxFileSize:  sr.maxSize,
				AllowedTypes: sr.types,
				Order:        i,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			req.SetActive(true)
			if _, err := cli.catRepo.CreateRequirement(ctx, req); err != nil {
				return err
			}
		}
		logger.Printf("seeded %s (%s) with %d requirements", name, code, len(defaultRequirements))
	}
	return nil
}
