package config

import "time"

// CacheConfig holds the TTL policy for the two kinds of entries written to
// Redis: pending-registration passcodes and profile snapshots.
//
// OTPTTL bounds how long a registration stays confirmable. ProfileTTL bounds
// how stale a cached profile can get relative to MySQL. OTPKeyPrefix and
// ProfileKeyPrefix namespace the keys ("otp:<email>", "user_data:<id>").
type CacheConfig struct {
	OTPTTL           time.Duration `yaml:"otp_ttl"`
	ProfileTTL       time.Duration `yaml:"profile_ttl"`
	OTPKeyPrefix     string        `yaml:"otp_key_prefix"`
	ProfileKeyPrefix string        `yaml:"profile_key_prefix"`
}

// DefaultCacheConfig returns the reference policy: 30s passcodes, 1h profiles.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		OTPTTL:           30 * time.Second,
		ProfileTTL:       3600 * time.Second,
		OTPKeyPrefix:     "otp",
		ProfileKeyPrefix: "user_data",
	}
}

func (c *CacheConfig) applyEnv() {
	c.OTPTTL = envDur("OTP_TTL", c.OTPTTL)
	c.ProfileTTL = envDur("PROFILE_CACHE_TTL", c.ProfileTTL)
	c.OTPKeyPrefix = getenv("OTP_KEY_PREFIX", c.OTPKeyPrefix)
	c.ProfileKeyPrefix = getenv("PROFILE_KEY_PREFIX", c.ProfileKeyPrefix)
	if c.OTPTTL <= 0 {
		c.OTPTTL = 30 * time.Second
	}
	if c.ProfileTTL <= 0 {
		c.ProfileTTL = time.Hour
	}
}
