package macros

// VastErrorCode is a VAST error code reported through the [ERRORCODE] macro.
type VastErrorCode string

const (
	XMLParsingError         VastErrorCode = "100"
	WrapperTimeout          VastErrorCode = "301"
	NoAdsVastResponse       VastErrorCode = "303"
	GeneralLinearAdError    VastErrorCode = "400"
	GeneralCompanionAdError VastErrorCode = "600"
	UndefinedError          VastErrorCode = "900"
)

var vastErrorCodes = map[VastErrorCode]struct{}{
	XMLParsingError:         {},
	WrapperTimeout:          {},
	NoAdsVastResponse:       {},
	GeneralLinearAdError:    {},
	GeneralCompanionAdError: {},
	UndefinedError:          {},
}

// IsValid returns true for the error codes this package knows about.
func (c VastErrorCode) IsValid() bool {
	_, ok := vastErrorCodes[c]
	return ok
}
