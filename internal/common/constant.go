// Package common contains shared constants and sentinel errors used across
// DoseKeeper components.
package common

// Durable storage keys shared by the session store and the local backend.
const (
	// SnapshotKey holds the persisted session store snapshot.
	SnapshotKey = "auth-storage"

	OnboardingKey = "onboarding-storage"
	DoseCacheKey  = "dose-storage"
	SettingsKey   = "settings-storage"

	// CurrentSessionKey is the single per-install session slot of the local backend.
	CurrentSessionKey = "current_session"

	UserKeyPrefix    = "user_"
	UserIDKeyPrefix  = "uid_"
	ProfileKeyPrefix = "profile_"
	DosesKeyPrefix   = "doses_"
)

// AppStorageKeys lists the fixed keys wiped on sign-out.
var AppStorageKeys = []string{SnapshotKey, OnboardingKey, DoseCacheKey, SettingsKey}

// AppStoragePrefixes lists the namespaces swept on sign-out.
var AppStoragePrefixes = []string{"auth-", "onboarding-", "dose-", "settings-"}

// DefaultDoseLimit caps dose listings when the caller passes a non-positive limit.
const DefaultDoseLimit = 100
