package constants

// Normalizer payload policy. The analysis service enforces a 10MB base64
// payload cap, which works out to roughly 7.5MB of raw bytes.
const (
	MaxRawPayloadBytes    = 7_500_000
	MaxBase64PayloadBytes = 10_000_000
	MaxTextChars          = 100_000
	MinMeaningfulText     = 10 // printable chars below which a PDF counts as scanned
	RasterDPI             = 100
)

// JPEGQualityLadder and ScaleLadder are tried in order when an image payload
// exceeds MaxRawPayloadBytes. Quality steps first, then downscaling.
var (
	JPEGQualityLadder = []int{85, 70, 50, 30}
	ScaleLadder       = []float64{0.75, 0.50, 0.25}
)

// Placer policy.
const (
	// MaxCollisionAttempts bounds the numeric disambiguator search.
	MaxCollisionAttempts = 1000
)

// Date validation window: years outside [MinDocumentYear, now+MaxFutureYears]
// are rejected as extraction noise.
const (
	MinDocumentYear = 1900
	MaxFutureYears  = 10
)

// Filename cleaning policy (see internal/filename).
const (
	MaxSegmentChars      = 50
	MaxBusinessNameWords = 4
)
