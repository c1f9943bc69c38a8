package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/debsync/internal/utils"
)

const (
	testEnvironmentPrefixConstant                  = "TESTDEBSYNC"
	testLogLevelKeyConstant                        = "common.log_level"
	testTimeoutKeyConstant                         = "sync.timeout"
	testAfterKeyConstant                           = "sync.after"
	testDefaultLogLevelConstant                    = "info"
	testConfiguredLogLevelConstant                 = "debug"
	testOverriddenLogLevelConstant                 = "error"
	testFileLogLevelConstant                       = "warn"
	testConfigFileNameConstant                     = "config.yaml"
	testConfigContentTemplateConstant              = "common:\n  log_level: %s\n"
	testCaseEmbeddedMessageConstant                = "embedded configuration merges"
	testCaseFileMessageConstant                    = "config file overrides embedded"
	testCaseEnvironmentMessageConstant             = "environment overrides file"
	testConfigurationNameConstant                  = "config"
	testConfigurationTypeConstant                  = "yaml"
	configurationLoaderSubtestNameTemplateConstant = "%d_%s"
	testEnvironmentLogLevelVariableConstant        = "TESTDEBSYNC_COMMON_LOG_LEVEL"
	testPrefixedAfterVariableConstant              = "TESTDEBSYNC_SYNC_AFTER"
	testUnprefixedAfterVariableConstant            = "TESTDEBSYNC_FALLBACK_SHA"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	Sync   configurationSyncFixture   `mapstructure:"sync"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationSyncFixture struct {
	After   string        `mapstructure:"after"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{
			name:             testCaseEmbeddedMessageConstant,
			expectedLogLevel: testConfiguredLogLevelConstant,
		},
		{
			name:             testCaseFileMessageConstant,
			fileLogLevel:     testFileLogLevelConstant,
			expectedLogLevel: testFileLogLevelConstant,
		},
		{
			name:                testCaseEnvironmentMessageConstant,
			fileLogLevel:        testFileLogLevelConstant,
			environmentLogLevel: testOverriddenLogLevelConstant,
			expectedLogLevel:    testOverriddenLogLevelConstant,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testEnvironmentLogLevelVariableConstant, testCase.environmentLogLevel)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})
			configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testConfiguredLogLevelConstant)), testConfigurationTypeConstant)

			defaultValues := map[string]any{
				testLogLevelKeyConstant: testDefaultLogLevelConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)

			if len(configurationFilePath) > 0 {
				require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderDecodesDurations(testInstance *testing.T) {
	tempDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(tempDirectory, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("sync:\n  timeout: 90s\n"), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, map[string]any{testTimeoutKeyConstant: "2m"}, &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 90*time.Second, loadedConfiguration.Sync.Timeout)
}

func TestConfigurationLoaderEnvironmentBindings(testInstance *testing.T) {
	testCases := []struct {
		name             string
		prefixedValue    string
		unprefixedValue  string
		expectedAfterSHA string
	}{
		{
			name:             "unprefixed_binding_used",
			unprefixedValue:  "abc",
			expectedAfterSHA: "abc",
		},
		{
			name:             "prefixed_variable_wins",
			prefixedValue:    "def",
			unprefixedValue:  "abc",
			expectedAfterSHA: "def",
		},
		{
			name:             "default_when_unset",
			expectedAfterSHA: "HEAD",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			if len(testCase.prefixedValue) > 0 {
				testInstance.Setenv(testPrefixedAfterVariableConstant, testCase.prefixedValue)
			}
			if len(testCase.unprefixedValue) > 0 {
				testInstance.Setenv(testUnprefixedAfterVariableConstant, testCase.unprefixedValue)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
			configurationLoader.BindEnvironment(testAfterKeyConstant, testUnprefixedAfterVariableConstant)

			loadedConfiguration := configurationFixture{}
			_, loadError := configurationLoader.LoadConfiguration("", map[string]any{testAfterKeyConstant: "HEAD"}, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedAfterSHA, loadedConfiguration.Sync.After)
		})
	}
}
