package ner

import (
	"strings"

	"github.com/biomind/repurposing/pkg/domain"
)

// knownDrugs and knownDiseases back both the NER fallback extractor (this
// package) and the orchestrator's query-hint scan, which reaches them
// through GuessDrugHint/GuessDiseaseHint: the orchestrator imports this
// package rather than keeping a second copy of the same list.
var knownDrugs = []string{
	"metformin", "aspirin", "ibuprofen", "atorvastatin", "simvastatin",
	"lisinopril", "amlodipine", "metoprolol", "losartan", "omeprazole",
	"levothyroxine", "albuterol", "gabapentin", "sertraline", "fluoxetine",
	"citalopram", "escitalopram", "bupropion", "trazodone", "duloxetine",
	"pioglitazone", "rosiglitazone", "sitagliptin", "empagliflozin",
	"canagliflozin", "insulin", "warfarin", "clopidogrel", "rivaroxaban",
	"apixaban", "prednisone", "methotrexate", "hydroxychloroquine",
	"infliximab", "adalimumab", "rituximab", "tamoxifen", "anastrozole",
	"letrozole", "imatinib", "gefitinib", "erlotinib", "sildenafil",
	"minoxidil", "propranolol", "furosemide", "spironolactone", "digoxin",
	"naltrexone", "thalidomide", "celecoxib",
}

var knownDiseases = []string{
	"breast cancer", "lung cancer", "colorectal cancer", "prostate cancer",
	"pancreatic cancer", "melanoma", "leukemia", "lymphoma", "type 2 diabetes",
	"type 1 diabetes", "hypertension", "coronary artery disease",
	"heart failure", "atrial fibrillation", "stroke", "alzheimer's disease",
	"parkinson's disease", "multiple sclerosis", "rheumatoid arthritis",
	"osteoarthritis", "lupus", "psoriasis", "asthma", "copd",
	"chronic kidney disease", "depression", "anxiety disorder",
	"bipolar disorder", "schizophrenia", "epilepsy", "migraine",
	"osteoporosis", "obesity", "hyperlipidemia", "hypothyroidism",
	"hyperthyroidism", "crohn's disease", "ulcerative colitis", "gout",
	"fibromyalgia", "sepsis",
}

var diseaseSuffixes = []string{"cancer", "disease", "syndrome", "disorder", "itis"}

// KnownDrugs and KnownDiseases return copies of the gazetteer lists.
func KnownDrugs() []string    { return append([]string{}, knownDrugs...) }
func KnownDiseases() []string { return append([]string{}, knownDiseases...) }

// GuessDrugHint scans text for the first known drug name mentioned.
func GuessDrugHint(text string) string {
	lower := strings.ToLower(text)
	for _, d := range knownDrugs {
		if strings.Contains(lower, d) {
			return d
		}
	}
	return ""
}

// GuessDiseaseHint scans text for the first known disease name mentioned,
// falling back to a disease-suffix heuristic ("...cancer", "...syndrome",
// etc.) over the words of text when no gazetteer entry matches.
func GuessDiseaseHint(text string) string {
	lower := strings.ToLower(text)
	for _, d := range knownDiseases {
		if strings.Contains(lower, d) {
			return d
		}
	}
	words := strings.Fields(lower)
	for i, w := range words {
		w = strings.Trim(w, ".,;:()\"'")
		for _, suffix := range diseaseSuffixes {
			if strings.HasSuffix(w, suffix) {
				if i > 0 {
					return strings.Trim(words[i-1], ".,;:()\"'") + " " + w
				}
				return w
			}
		}
	}
	return ""
}

func gazetteerKind(lowerName string) (domain.EntityKind, bool) {
	for _, d := range knownDrugs {
		if d == lowerName {
			return domain.KindDrug, true
		}
	}
	for _, d := range knownDiseases {
		if d == lowerName {
			return domain.KindDisease, true
		}
	}
	for _, suffix := range diseaseSuffixes {
		if len(lowerName) > len(suffix) && lowerName[len(lowerName)-len(suffix):] == suffix {
			return domain.KindDisease, true
		}
	}
	return "", false
}
