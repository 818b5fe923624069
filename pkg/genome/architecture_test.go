package genome

import (
	"testing"

	"shobergarden/testutil"
)

func TestEngineImportBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.EngineImportForbidden, "genome must not depend on storage or service code")
	testutil.AssertNoTransitiveDependency(t, "shobergarden/pkg/genome", testutil.EngineImportForbidden, "genome must not depend on storage or service code")
}
