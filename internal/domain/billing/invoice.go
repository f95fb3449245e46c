package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/pkg/money"
)

// Invoice bucket names, in presentation order.
const (
	BucketConsultation    = "CONSULTATION"
	BucketLaboratoire     = "LABORATOIRE"
	BucketImagerie        = "IMAGERIE"
	BucketActs            = "ACTS"
	BucketMedicaments     = "MEDICAMENTS"
	BucketConsommables    = "CONSOMMABLES"
	BucketAmbulance       = "AMBULANCE"
	BucketAutres          = "AUTRES"
	BucketHospitalisation = "HOSPITALISATION"
)

type bucketMapping struct {
	bucket   string
	prefixes []string
}

// invoiceBuckets is the fixed grouping taxonomy. A line item lands in the
// first bucket holding a prefix its facility-service category starts with;
// an item matching no prefix is omitted from every sub-invoice and counted
// as unmatched.
var invoiceBuckets = []bucketMapping{
	{BucketConsultation, []string{"CONSULTATION"}},
	{BucketLaboratoire, []string{"LABORATOIRE"}},
	{BucketImagerie, []string{"ECHOGRAPHIE", "RADIOLOGIE"}},
	{BucketActs, []string{
		"STOMATOLOGIE", "CHIRURGIE", "SOINS INTENSIFS", "GYNECO-OBSTETRIQUE", "ORL",
		"DERMATOLOGIE", "SOINS INFIRMIERS", "MATERNITE", "OPHTALMOLOGIE",
		"KINESITHERAPIE", "MEDECINE INTERNE", "NEUROLOGIE",
	}},
	{BucketMedicaments, []string{"MEDICAMENTS"}},
	{BucketConsommables, []string{"CONSOMMABLES"}},
	{BucketAmbulance, []string{"AMBULANCE"}},
	{BucketAutres, []string{"FORMALITES ADMINISTRATIVES", "OXYGENOTHERAPIE"}},
	{BucketHospitalisation, []string{"HOSPITALISATION"}},
}

// ambulanceLabelPrefix splits ambulance runs billed under administrative
// formalities out of the AUTRES bucket.
const ambulanceLabelPrefix = "Ambul"

// Consommation is one line of a sub-invoice: a billed service with its cost
// split between insurer and patient.
type Consommation struct {
	RecordDate    time.Time       `json:"record_date"`
	Label         string          `json:"label"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Quantity      decimal.Decimal `json:"quantity"`
	Cost          decimal.Decimal `json:"cost"`
	InsuranceCost decimal.Decimal `json:"insurance_cost"`
	PatientCost   decimal.Decimal `json:"patient_cost"`
}

// Invoice is one bucket's sub-invoice.
type Invoice struct {
	Bucket        string          `json:"bucket"`
	CreatedDate   time.Time       `json:"created_date"`
	Consommations []Consommation  `json:"consommations"`
	SubTotal      decimal.Decimal `json:"sub_total"`
}

// PatientInvoice is the composed, presentation-ready view of a bill. It is
// never persisted.
type PatientInvoice struct {
	Bill          *PatientBill    `json:"bill"`
	Invoices      []*Invoice      `json:"invoices"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InsuranceCost decimal.Decimal `json:"insurance_cost"`
	PatientCost   decimal.Decimal `json:"patient_cost"`
	// Unmatched counts line items whose category matched no bucket. A
	// non-zero value is a data-quality signal, not an error.
	Unmatched int `json:"unmatched"`
}

// ComposeInvoice groups a bill's non-voided line items into the fixed bucket
// taxonomy under the given insurance rate. Composing the same unchanged bill
// twice yields identical figures.
func ComposeInvoice(pb *PatientBill, rate decimal.Decimal) *PatientInvoice {
	invoices := make([]*Invoice, 0, len(invoiceBuckets))
	index := make(map[string]int, len(invoiceBuckets))
	matched := make(map[*PatientServiceBill]bool)

	grandTotal := decimal.Zero
	for _, mapping := range invoiceBuckets {
		inv := &Invoice{
			Bucket:        mapping.bucket,
			CreatedDate:   pb.CreatedAt,
			Consommations: []Consommation{},
		}
		total := decimal.Zero
		for _, prefix := range mapping.prefixes {
			for _, item := range pb.Items {
				if item.Voided || !strings.HasPrefix(item.ServiceCategory, prefix) {
					continue
				}
				matched[item] = true
				c := consommation(item, rate)
				inv.Consommations = append(inv.Consommations, c)
				total = total.Add(c.Cost)
			}
		}
		inv.SubTotal = money.Round2(total)
		grandTotal = grandTotal.Add(total)

		if mapping.bucket != BucketAutres {
			index[mapping.bucket] = len(invoices)
			invoices = append(invoices, inv)
			continue
		}

		// Ambulance runs billed under AUTRES move into a synthetic AMBULANCE
		// sub-invoice, replacing the taxonomy's own AMBULANCE slot.
		ambulance := &Invoice{Bucket: BucketAmbulance, CreatedDate: pb.CreatedAt, Consommations: []Consommation{}}
		autres := &Invoice{Bucket: BucketAutres, CreatedDate: pb.CreatedAt, Consommations: []Consommation{}}
		ambulanceTotal, autresTotal := decimal.Zero, decimal.Zero
		for _, c := range inv.Consommations {
			if strings.HasPrefix(c.Label, ambulanceLabelPrefix) {
				ambulance.Consommations = append(ambulance.Consommations, c)
				ambulanceTotal = ambulanceTotal.Add(c.Cost)
			} else {
				autres.Consommations = append(autres.Consommations, c)
				autresTotal = autresTotal.Add(c.Cost)
			}
		}
		ambulance.SubTotal = money.Round2(ambulanceTotal)
		autres.SubTotal = money.Round2(autresTotal)

		invoices[index[BucketAmbulance]] = ambulance
		index[BucketAutres] = len(invoices)
		invoices = append(invoices, autres)
	}

	unmatched := 0
	for _, item := range pb.Items {
		if !item.Voided && !matched[item] {
			unmatched++
		}
	}

	return &PatientInvoice{
		Bill:          pb,
		Invoices:      invoices,
		TotalAmount:   money.Round2(grandTotal),
		InsuranceCost: money.Round2(money.Percent(grandTotal, rate)),
		PatientCost:   money.Round2(money.Complement(grandTotal, rate)),
		Unmatched:     unmatched,
	}
}

func consommation(item *PatientServiceBill, rate decimal.Decimal) Consommation {
	cost := item.Cost()
	return Consommation{
		RecordDate:    item.ServiceDate,
		Label:         item.ServiceName,
		UnitCost:      item.UnitPrice,
		Quantity:      item.Quantity,
		Cost:          cost,
		InsuranceCost: money.Percent(cost, rate),
		PatientCost:   money.Complement(cost, rate),
	}
}

// BucketInvoice returns the sub-invoice for a bucket, or nil when the
// composition does not carry it.
func (pi *PatientInvoice) BucketInvoice(bucket string) *Invoice {
	for _, inv := range pi.Invoices {
		if inv.Bucket == bucket {
			return inv
		}
	}
	return nil
}
