// Package patch rewrites the three configuration artifacts of a staged
// Cordova project so they carry the requested app identity:
//
//   - config.xml: widget id/version attributes, name and description text
//   - package.json: name, displayName, version and description fields
//   - www/js/index.js: the landing URL and URL-splitting statements, so the
//     wrapped site loads from the app's local file root
//
// Each artifact is read, transformed and written exactly once. Configure
// applies them in that order and stops at the first failure; artifacts
// already written are left as they are.
//
// Inspect and ValidateIdentity read a produced project back, for the
// inspect command and for tests.
package patch
