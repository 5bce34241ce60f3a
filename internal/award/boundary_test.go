package award

import (
	"testing"

	"awardbook/testutil"
)

func TestAwardRulesStayStorageFree(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.StorageDriverImport, "award rules work on loaded tables only")
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InfraImport, "award rules reach storage through records")
}
