package cmd

import (
	"github.com/quatton/qsite/pkg/qerr"
	"github.com/quatton/qsite/pkg/qlog"
)

// exitIfSiteError emits guidance for classified failures before exiting.
// Unclassified errors are printed as-is.
func exitIfSiteError(log *qlog.Logger, err error) {
	if err == nil {
		return
	}
	switch qerr.CodeOf(err) {
	case qerr.CodeManifestNotFound:
		log.Fatalf("no package.json found two levels above the package path: check 'package' in qsite.yaml (%v)", err)
	case qerr.CodeMalformedManifest:
		log.Fatalf("package.json has no usable componentId {scope, name}: is this a bit component? (%v)", err)
	case qerr.CodeFetchToolFailure:
		log.Fatalf("fetching artifacts failed: make sure 'bit' is installed and can reach the component's scope (%v)", err)
	case qerr.CodeUploadFailure:
		log.Fatalf("uploading artifacts failed: re-run to retry, finished objects are left in place (%v)", err)
	case qerr.CodeProvisioningFailure:
		log.Fatalf("provisioning failed: run 'qsite refresh' and retry (%v)", err)
	case qerr.CodeConfigInvalid:
		log.Fatalf("invalid configuration: check qsite.yaml and QSITE_* variables (%v)", err)
	case qerr.CodeDeploymentLocked:
		log.Fatalf("another deployment of this stack is running: wait for it or for the lock to expire (%v)", err)
	default:
		log.Fatalf("%v", err)
	}
}
