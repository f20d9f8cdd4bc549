package file

// checksumer
var checksumers = map[string]Checksumer{}

func RegisterChecksumer(key string, ch Checksumer) {
	checksumers[key] = ch
}

// GetChecksumer get Checksumer by type
func GetChecksumer(key string) Checksumer {
	switch key {
	case MD5:
		return &MD5Checksumer{}
	case SHA1:
		return &SHA1Checksumer{}
	case SHA256:
		return &SHA256Checksumer{}
	case SHA512:
		return &SHA512Checksumer{}
	default:
		return checksumers[key]
	}
}
