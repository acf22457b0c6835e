package constants

const USER_AGENT = "fetchcache/0.1.0 (+https://github.com/Amund211/fetchcache)"

// Upper bound on a single response body
const MAX_PAYLOAD_BYTES = 10 << 20
