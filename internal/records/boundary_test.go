package records

import (
	"testing"

	"awardbook/testutil"
)

func TestRecordsUseBackendInterfaces(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageDriverImport, "tables persist through Backend")
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImport, "evidence is stored through blob/core")
}
